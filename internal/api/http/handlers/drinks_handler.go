package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/coffeeshop-service/internal/api/dto"
	"github.com/spec-kit/coffeeshop-service/internal/auth"
	"github.com/spec-kit/coffeeshop-service/internal/service"
	apperrors "github.com/spec-kit/coffeeshop-service/pkg/util"
)

// DrinksHandler manages the drink menu endpoints.
type DrinksHandler struct {
	service *service.DrinkService
}

// NewDrinksHandler constructs handler.
func NewDrinksHandler(drinkService *service.DrinkService) *DrinksHandler {
	return &DrinksHandler{service: drinkService}
}

// ListDrinks GET /drinks. Public; short recipe representation.
func (h *DrinksHandler) ListDrinks(c *fiber.Ctx) error {
	drinks, err := h.service.ListDrinks(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DrinkShort, 0, len(drinks))
	for i := range drinks {
		items = append(items, dto.ShortDrink(&drinks[i]))
	}
	return c.JSON(fiber.Map{"success": true, "drinks": items})
}

// ListDrinksDetail GET /drinks-detail. Requires get:drinks-detail.
func (h *DrinksHandler) ListDrinksDetail(c *fiber.Ctx) error {
	drinks, err := h.service.ListDrinks(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.DrinkLong, 0, len(drinks))
	for i := range drinks {
		items = append(items, dto.LongDrink(&drinks[i]))
	}
	return c.JSON(fiber.Map{"success": true, "drinks": items})
}

// CreateDrink POST /drinks. Requires post:drinks.
func (h *DrinksHandler) CreateDrink(c *fiber.Ctx) error {
	var req dto.CreateDrinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	recipe, err := dto.ParseRecipe(req.Recipe)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	drink, err := h.service.CreateDrink(c.UserContext(), subject(c), service.DrinkCreateInput{
		Title:  req.Title,
		Recipe: recipe,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "drinks": []dto.DrinkLong{dto.LongDrink(drink)}})
}

// PatchDrink PATCH /drinks/:id. Requires patch:drinks.
func (h *DrinksHandler) PatchDrink(c *fiber.Ctx) error {
	id, err := drinkID(c)
	if err != nil {
		return err
	}
	var req dto.PatchDrinkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	recipe, err := dto.ParseRecipe(req.Recipe)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	drink, err := h.service.PatchDrink(c.UserContext(), subject(c), id, service.DrinkPatchInput{
		Title:  req.Title,
		Recipe: recipe,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "drinks": []dto.DrinkLong{dto.LongDrink(drink)}})
}

// DeleteDrink DELETE /drinks/:id. Requires delete:drinks.
func (h *DrinksHandler) DeleteDrink(c *fiber.Ctx) error {
	id, err := drinkID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteDrink(c.UserContext(), subject(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "delete": id})
}

func drinkID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFound("drink", nil)
	}
	return id, nil
}

func subject(c *fiber.Ctx) string {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return ""
	}
	return claims.Subject
}

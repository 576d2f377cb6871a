package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/coffeeshop-service/internal/domain"
	"github.com/spec-kit/coffeeshop-service/internal/events"
	"github.com/spec-kit/coffeeshop-service/internal/repository"
	apperrors "github.com/spec-kit/coffeeshop-service/pkg/util"
)

// DrinkService implements menu operations on top of the repository, the
// Redis-backed menu cache and the event dispatcher.
type DrinkService struct {
	repo       repository.DrinkRepository
	cache      *MenuCache
	dispatcher events.Dispatcher
}

// NewDrinkService constructs the service.
func NewDrinkService(repo repository.DrinkRepository, cache *MenuCache, dispatcher events.Dispatcher) *DrinkService {
	return &DrinkService{repo: repo, cache: cache, dispatcher: dispatcher}
}

// DrinkCreateInput carries fields for a new drink.
type DrinkCreateInput struct {
	Title  string
	Recipe []domain.Ingredient
}

// DrinkPatchInput carries optional fields for a partial update.
type DrinkPatchInput struct {
	Title  *string
	Recipe []domain.Ingredient
}

// ListDrinks returns the full menu, served from cache when possible.
func (s *DrinkService) ListDrinks(ctx context.Context) ([]domain.Drink, error) {
	if drinks, ok := s.cache.Get(ctx); ok {
		return drinks, nil
	}
	drinks, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewUnprocessable("could not load drinks")
	}
	s.cache.Set(ctx, drinks)
	return drinks, nil
}

// CreateDrink validates and persists a new drink, then publishes the
// creation event.
func (s *DrinkService) CreateDrink(ctx context.Context, subject string, input DrinkCreateInput) (*domain.Drink, error) {
	if err := validateDrink(input.Title, input.Recipe); err != nil {
		return nil, err
	}
	drink := &domain.Drink{
		Title:  strings.TrimSpace(input.Title),
		Recipe: input.Recipe,
	}
	if err := s.repo.Create(ctx, drink); err != nil {
		return nil, apperrors.NewUnprocessable("could not create drink")
	}
	s.publish(ctx, events.EventDrinkCreated, drink.ID, subject, events.DrinkChangedPayload{
		Title:  drink.Title,
		Recipe: drink.Recipe,
	})
	return drink, nil
}

// PatchDrink applies a partial update to an existing drink.
func (s *DrinkService) PatchDrink(ctx context.Context, subject string, id int64, input DrinkPatchInput) (*domain.Drink, error) {
	drink, err := s.getDrink(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		drink.Title = strings.TrimSpace(*input.Title)
	}
	if input.Recipe != nil {
		drink.Recipe = input.Recipe
	}
	if err := validateDrink(drink.Title, drink.Recipe); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, drink); err != nil {
		return nil, apperrors.NewUnprocessable("could not update drink")
	}
	s.publish(ctx, events.EventDrinkUpdated, drink.ID, subject, events.DrinkChangedPayload{
		Title:  drink.Title,
		Recipe: drink.Recipe,
	})
	return drink, nil
}

// DeleteDrink removes an existing drink.
func (s *DrinkService) DeleteDrink(ctx context.Context, subject string, id int64) error {
	drink, err := s.getDrink(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.NewUnprocessable("could not delete drink")
	}
	s.publish(ctx, events.EventDrinkDeleted, id, subject, events.DrinkDeletedPayload{Title: drink.Title})
	return nil
}

func (s *DrinkService) getDrink(ctx context.Context, id int64) (*domain.Drink, error) {
	drink, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("drink", map[string]any{"id": id})
		}
		return nil, apperrors.NewUnprocessable("could not load drink")
	}
	return drink, nil
}

func (s *DrinkService) publish(ctx context.Context, eventType events.EventType, drinkID int64, subject string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		DrinkID:   drinkID,
		Subject:   subject,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

func validateDrink(title string, recipe []domain.Ingredient) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	if len(recipe) == 0 {
		return apperrors.NewValidationError("recipe is required", nil)
	}
	for _, ingredient := range recipe {
		if strings.TrimSpace(ingredient.Name) == "" {
			return apperrors.NewValidationError("every ingredient needs a name", nil)
		}
		if ingredient.Parts <= 0 {
			return apperrors.NewValidationError("ingredient parts must be positive", nil)
		}
	}
	return nil
}

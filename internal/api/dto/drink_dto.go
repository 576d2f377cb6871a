package dto

import (
	"encoding/json"
	"errors"

	"github.com/spec-kit/coffeeshop-service/internal/domain"
)

// CreateDrinkRequest input payload. Recipe is raw because callers send a
// single ingredient object, an ingredient array, or either one pre-encoded
// as a JSON string.
type CreateDrinkRequest struct {
	Title  string          `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

// PatchDrinkRequest input payload; absent fields are left untouched.
type PatchDrinkRequest struct {
	Title  *string         `json:"title"`
	Recipe json.RawMessage `json:"recipe"`
}

// IngredientShort is the public projection of an ingredient: the color bar
// without the ingredient name.
type IngredientShort struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// DrinkShort is the public menu representation.
type DrinkShort struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []IngredientShort `json:"recipe"`
}

// DrinkLong is the full representation for permitted callers.
type DrinkLong struct {
	ID     int64               `json:"id"`
	Title  string              `json:"title"`
	Recipe []domain.Ingredient `json:"recipe"`
}

// ShortDrink converts a domain drink to its public projection.
func ShortDrink(drink *domain.Drink) DrinkShort {
	recipe := make([]IngredientShort, 0, len(drink.Recipe))
	for _, ingredient := range drink.Recipe {
		recipe = append(recipe, IngredientShort{Color: ingredient.Color, Parts: ingredient.Parts})
	}
	return DrinkShort{ID: drink.ID, Title: drink.Title, Recipe: recipe}
}

// LongDrink converts a domain drink to its full projection.
func LongDrink(drink *domain.Drink) DrinkLong {
	recipe := make([]domain.Ingredient, 0, len(drink.Recipe))
	recipe = append(recipe, drink.Recipe...)
	return DrinkLong{ID: drink.ID, Title: drink.Title, Recipe: recipe}
}

// ParseRecipe normalizes the accepted recipe shapes into an ingredient list.
// Returns nil for an absent recipe so partial updates can tell "not sent"
// from "sent empty".
func ParseRecipe(raw json.RawMessage) ([]domain.Ingredient, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return ParseRecipe(json.RawMessage(asString))
	}
	var list []domain.Ingredient
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var single domain.Ingredient
	if err := json.Unmarshal(raw, &single); err == nil {
		return []domain.Ingredient{single}, nil
	}
	return nil, errors.New("recipe must be an ingredient or a list of ingredients")
}

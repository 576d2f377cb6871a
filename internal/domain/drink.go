package domain

import "time"

// Ingredient is one component of a drink recipe.
type Ingredient struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// Drink is the aggregate for menu entries. Recipe is an ordered ingredient
// list persisted as JSONB.
type Drink struct {
	ID        int64
	Title     string
	Recipe    []Ingredient
	CreatedAt time.Time
	UpdatedAt time.Time
}

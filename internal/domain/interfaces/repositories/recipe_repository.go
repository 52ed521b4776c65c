// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// RecipeRepository defines the interface for accessing vendor recipes
type RecipeRepository interface {
	// GetRecipe retrieves a vendor recipe by library name
	GetRecipe(ctx context.Context, name string) (*entities.Recipe, error)

	// ListRecipes returns all available vendor recipes
	ListRecipes(ctx context.Context) ([]*entities.Recipe, error)

	// RecipePath returns the directory recipes are loaded from
	RecipePath() string
}

package yaml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRecipe(t *testing.T, dir, file, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
}

func TestRecipeRepository_GetRecipe_Success(t *testing.T) {
	tmpDir := t.TempDir()
	writeRecipe(t, tmpDir, "openssl.yml", "name: openssl\nversion: 3.0.13\n")

	repo := NewRecipeRepository(tmpDir, nil)
	recipe, err := repo.GetRecipe(context.Background(), "openssl")
	if err != nil {
		t.Fatalf("GetRecipe() error = %v", err)
	}

	if recipe.Name != "openssl" {
		t.Errorf("GetRecipe() name = %v, want openssl", recipe.Name)
	}
}

func TestRecipeRepository_GetRecipe_YAMLExtension(t *testing.T) {
	tmpDir := t.TempDir()
	writeRecipe(t, tmpDir, "wolfssl.yaml", "name: wolfssl\nversion: 5.6.6\n")

	repo := NewRecipeRepository(tmpDir, nil)
	if _, err := repo.GetRecipe(context.Background(), "wolfssl"); err != nil {
		t.Fatalf("GetRecipe() error = %v", err)
	}
}

func TestRecipeRepository_GetRecipe_NotFound(t *testing.T) {
	tmpDir := t.TempDir()
	repo := NewRecipeRepository(tmpDir, nil)

	_, err := repo.GetRecipe(context.Background(), "nonexistent")
	if !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("GetRecipe() error = %v, want ErrRecipeNotFound", err)
	}
}

func TestRecipeRepository_ListRecipes(t *testing.T) {
	tmpDir := t.TempDir()
	writeRecipe(t, tmpDir, "openssl.yml", "name: openssl\nversion: 3.0.13\n")
	writeRecipe(t, tmpDir, "libressl.yml", "name: libressl\nversion: 3.8.2\n")
	writeRecipe(t, tmpDir, "broken.yml", "version: 1.0\n")
	writeRecipe(t, tmpDir, "README.md", "# recipes\n")

	repo := NewRecipeRepository(tmpDir, nil)
	recipes, err := repo.ListRecipes(context.Background())
	if err != nil {
		t.Fatalf("ListRecipes() error = %v", err)
	}

	if len(recipes) != 2 {
		t.Fatalf("ListRecipes() returned %d recipes, want 2", len(recipes))
	}
	if recipes[0].Name != "libressl" || recipes[1].Name != "openssl" {
		t.Errorf("ListRecipes() order = [%s %s], want sorted", recipes[0].Name, recipes[1].Name)
	}
}

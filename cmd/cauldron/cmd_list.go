package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	recipesDir := fs.String("recipes-dir", "recipes", "Path to recipes directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron list [options]

List all available library recipes.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	recipes, err := yaml.NewRecipeRepository(*recipesDir, nil).ListRecipes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing recipes: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Available libraries (%d total):\n\n", len(recipes))
	for _, recipe := range recipes {
		fmt.Printf("  %-20s %s\n", recipe.Name, recipe.Description)
		fmt.Printf("  %-20s Version: %s\n", "", recipe.Version)
		if len(recipe.Profiles) > 0 {
			fmt.Printf("  %-20s Profiles: %s\n", "", strings.Join(recipe.Profiles, " | "))
		}
		if recipe.Source.SignatureURL != "" {
			fmt.Printf("  %-20s Source signature verified\n", "")
		}
		fmt.Println()
	}
}

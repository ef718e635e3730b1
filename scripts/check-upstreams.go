package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/xason0/ultraxas-go/internal/config"
	"github.com/xason0/ultraxas-go/internal/services/search"
)

func main() {
	fmt.Println("Upstream Connectivity Check")
	fmt.Println("===========================")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Printf("Search instances: %v\n", cfg.Search.Instances)
	fmt.Println()

	searchService := search.NewService(&cfg.Search)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// A search that returns results proves at least one instance is reachable.
	fmt.Println("Testing search...")
	results, err := searchService.Search(ctx, "test")
	if err != nil {
		log.Fatalf("Search failed on every configured instance: %v", err)
	}
	fmt.Printf("Search OK: %d results\n", len(results))

	if len(results) > 0 {
		fmt.Println("\nTesting video lookup...")
		details, err := searchService.Lookup(ctx, results[0].ID)
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		fmt.Printf("Lookup OK: %q (%s)\n", details.Title, details.Duration)
	}

	fmt.Println("\nTesting trending...")
	trending, err := searchService.Trending(ctx)
	if err != nil {
		log.Fatalf("Trending failed: %v", err)
	}
	fmt.Printf("Trending OK: %d results\n", len(trending))

	fmt.Println("\nAll upstream checks passed.")
}

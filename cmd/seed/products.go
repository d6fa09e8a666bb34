package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipeshop/internal/logger"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
)

var (
	productsFile string
	productsURL  string
)

// SeedProductData is one entry of the product seed file.
type SeedProductData struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Create or update catalog products from a JSON list",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := loadProducts(cmd.Context())
		if err != nil {
			return err
		}
		logger.L().Info("loaded products", zap.Int("count", len(items)))

		env, err := setup()
		if err != nil {
			return err
		}
		defer env.close()

		products := service.NewProductService(repository.NewProductRepository(env.db), env.store, 0)
		created, updated, err := seedProducts(cmd.Context(), products, items)
		if err != nil {
			return err
		}
		logger.L().Info("seed completed", zap.Int("created", created), zap.Int("updated", updated))
		return nil
	},
}

func loadProducts(ctx context.Context) ([]SeedProductData, error) {
	var body []byte
	var err error
	if productsURL != "" {
		body, err = fetch(ctx, productsURL)
	} else {
		body, err = os.ReadFile(productsFile)
	}
	if err != nil {
		return nil, err
	}

	var items []SeedProductData
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return items, nil
}

// fetch downloads the product list.
func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// seedProducts creates new products and updates the ones whose name already
// exists, matching names case-insensitively.
func seedProducts(ctx context.Context, svc service.ProductService, items []SeedProductData) (created, updated int, err error) {
	for _, item := range items {
		existing, err := svc.ListProducts(ctx, repository.ProductQuery{Name: item.Name})
		if err != nil {
			return created, updated, fmt.Errorf("error checking product %q: %w", item.Name, err)
		}

		if len(existing) > 0 {
			_, err := svc.UpdateProduct(ctx, existing[0].ID, service.ProductPatch{
				Description: &item.Description,
				Price:       &item.Price,
				Stock:       &item.Stock,
			})
			if err != nil {
				return created, updated, fmt.Errorf("error updating product %q: %w", item.Name, err)
			}
			updated++
			continue
		}

		_, err = svc.CreateProduct(ctx, service.ProductInput{
			Name:        item.Name,
			Description: item.Description,
			Price:       item.Price,
			Stock:       item.Stock,
		})
		if err != nil {
			return created, updated, fmt.Errorf("error creating product %q: %w", item.Name, err)
		}
		created++
	}
	return created, updated, nil
}

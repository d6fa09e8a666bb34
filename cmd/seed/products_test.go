package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeshop/internal/cache"
	"recipeshop/internal/db"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
)

const productsJSON = `[
	{"name": "Coffee Machine", "description": "Espresso", "price": "120.50", "stock": 3},
	{"name": "Tea Kettle", "description": "Steel", "price": 25, "stock": 0}
]`

func TestLoadProducts(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "products.json")
		require.NoError(t, os.WriteFile(path, []byte(productsJSON), 0o600))
		productsFile, productsURL = path, ""
		t.Cleanup(func() { productsFile = "" })

		items, err := loadProducts(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Coffee Machine", items[0].Name)
		assert.True(t, decimal.RequireFromString("120.50").Equal(items[0].Price))
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(productsJSON))
		}))
		defer srv.Close()
		productsFile, productsURL = "", srv.URL
		t.Cleanup(func() { productsURL = "" })

		items, err := loadProducts(context.Background())
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("bad status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		productsFile, productsURL = "", srv.URL
		t.Cleanup(func() { productsURL = "" })

		_, err := loadProducts(context.Background())
		assert.ErrorContains(t, err, "502")
	})
}

func TestSeedProducts_Upserts(t *testing.T) {
	gormDB, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	ctx := context.Background()
	store := cache.NewMemory()
	svc := service.NewProductService(repository.NewProductRepository(gormDB), store, 0)

	items := []SeedProductData{
		{Name: "Coffee Machine", Description: "Espresso", Price: decimal.NewFromInt(120), Stock: 3},
		{Name: "Tea Kettle", Description: "Steel", Price: decimal.NewFromInt(25), Stock: 0},
	}
	created, updated, err := seedProducts(ctx, svc, items)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 0, updated)

	// cached list is dropped by the next seed run
	_, err = svc.ListProducts(ctx, repository.ProductQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, store.Count(service.ProductListPrefix))

	created, updated, err = seedProducts(ctx, svc, []SeedProductData{
		{Name: "coffee machine", Description: "Espresso v2", Price: decimal.NewFromInt(99), Stock: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 0, store.Count(service.ProductListPrefix))

	products, err := svc.ListProducts(ctx, repository.ProductQuery{Name: "Coffee Machine"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Coffee Machine", products[0].Name)
	assert.Equal(t, "Espresso v2", products[0].Description)
	assert.Equal(t, 5, products[0].Stock)
}

package service

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"recipeshop/internal/cache"
	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/logger"
	"recipeshop/internal/metrics"
	"recipeshop/internal/model"
	"recipeshop/internal/repository"
)

const (
	// ProductListPrefix namespaces every cached product list.
	ProductListPrefix = "product_list:"
	// DefaultProductCacheTTL is used when no TTL is configured.
	DefaultProductCacheTTL = 15 * time.Minute

	productListCache = "product_list"
	// productListGeneration counts product writes. It sits outside
	// ProductListPrefix so invalidation never resets it.
	productListGeneration = "product_list_generation"
)

// ProductInput carries the full set of writable product fields.
type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// ProductPatch lists the product fields to change. Nil fields are left untouched.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
}

// ProductInfo summarizes the catalog.
type ProductInfo struct {
	Products []model.Product
	Count    int64
	MaxPrice decimal.NullDecimal
	MinPrice decimal.NullDecimal
}

// ProductService exposes catalog operations.
type ProductService interface {
	ListProducts(ctx context.Context, q repository.ProductQuery) ([]model.Product, error)
	ProductInfo(ctx context.Context) (*ProductInfo, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
}

type productService struct {
	repo  repository.ProductRepository
	cache cache.Store
	ttl   time.Duration
}

// NewProductService builds a ProductService caching list reads in store.
func NewProductService(repo repository.ProductRepository, store cache.Store, ttl time.Duration) ProductService {
	if ttl <= 0 {
		ttl = DefaultProductCacheTTL
	}
	return &productService{repo: repo, cache: store, ttl: ttl}
}

// ProductListKey is the cache key for a list query. Equivalent queries map to
// the same key regardless of parameter order.
func ProductListKey(q repository.ProductQuery) string {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	setDecimal := func(k string, d *decimal.Decimal) {
		if d != nil {
			v.Set(k, d.String())
		}
	}
	set("name", q.Name)
	set("name__icontains", q.NameContains)
	setDecimal("price", q.Price)
	setDecimal("price__lt", q.PriceLT)
	setDecimal("price__gt", q.PriceGT)
	if q.PriceRange != nil {
		v.Set("price__range", q.PriceRange[0].String()+","+q.PriceRange[1].String())
	}
	set("search", q.Search)
	set("ordering", q.Ordering)
	return ProductListPrefix + v.Encode()
}

// ListProducts serves from the cache when possible. Cache failures degrade to
// a database read. Entries are stored under the write generation read before
// the query, so a read that overlaps a write cannot refill the cache with rows
// the next reader would be served.
func (s *productService) ListProducts(ctx context.Context, q repository.ProductQuery) ([]model.Product, error) {
	key := ProductListKey(q) + "@" + strconv.FormatInt(s.generation(ctx), 10)

	if data, _ := s.cache.Get(ctx, key); data != nil {
		var cached []model.Product
		if err := json.Unmarshal(data, &cached); err == nil {
			metrics.CacheLookup(productListCache, true)
			return cached, nil
		}
	}
	metrics.CacheLookup(productListCache, false)

	products, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(products); err == nil {
		_ = s.cache.Set(ctx, key, payload, s.ttl)
	}
	return products, nil
}

func (s *productService) ProductInfo(ctx context.Context) (*ProductInfo, error) {
	products, err := s.repo.List(ctx, repository.ProductQuery{})
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductInfo{
		Products: products,
		Count:    stats.Count,
		MaxPrice: stats.MaxPrice,
		MinPrice: stats.MinPrice,
	}, nil
}

func (s *productService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *productService) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	product := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id uint, patch ProductPatch) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *productService) generation(ctx context.Context) int64 {
	data, _ := s.cache.Get(ctx, productListGeneration)
	gen, _ := strconv.ParseInt(string(data), 10, 64)
	return gen
}

// invalidate moves readers to a new generation and drops every cached product
// list. A failure never fails the write.
func (s *productService) invalidate(ctx context.Context) {
	if _, err := s.cache.Incr(ctx, productListGeneration); err != nil {
		metrics.CacheInvalidationFailures.WithLabelValues(productListCache).Inc()
		logger.L().Warn("product list generation bump failed", zap.Error(err))
	}
	if err := s.cache.DeleteByPrefix(ctx, ProductListPrefix); err != nil {
		metrics.CacheInvalidationFailures.WithLabelValues(productListCache).Inc()
		logger.L().Warn("product list cache invalidation failed", zap.Error(err))
	}
}

var maxProductPrice = decimal.New(1, 8) // decimal(10,2)

func validateProduct(p *model.Product) error {
	verr := &apperrors.ValidationError{}
	if p.Name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if len(p.Name) > 200 {
		verr.Add("name", "Ensure this field has no more than 200 characters.")
	}
	if p.Price.IsNegative() {
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	}
	if p.Price.GreaterThanOrEqual(maxProductPrice) {
		verr.Add("price", "Ensure that there are no more than 10 digits in total.")
	}
	if p.Stock < 0 {
		verr.Add("stock", "Ensure this value is greater than or equal to 0.")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

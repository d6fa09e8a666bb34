package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
)

// ProductOrderings maps the accepted ordering values to SQL.
var ProductOrderings = map[string]string{
	"id":     "id ASC",
	"-id":    "id DESC",
	"name":   "name ASC",
	"-name":  "name DESC",
	"price":  "price ASC",
	"-price": "price DESC",
	"stock":  "stock ASC",
	"-stock": "stock DESC",
}

// ProductQuery holds the catalog list filters. Zero values mean "no filter".
type ProductQuery struct {
	Name         string
	NameContains string
	Price        *decimal.Decimal
	PriceLT      *decimal.Decimal
	PriceGT      *decimal.Decimal
	PriceRange   *[2]decimal.Decimal
	Search       string
	Ordering     string
}

// ProductStats aggregates the whole catalog.
type ProductStats struct {
	Count    int64
	MaxPrice decimal.NullDecimal
	MinPrice decimal.NullDecimal
}

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	List(ctx context.Context, q ProductQuery) ([]model.Product, error)
	Stats(ctx context.Context) (ProductStats, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product. Order items referencing it cascade.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) List(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	db := r.db.WithContext(ctx)

	if q.Name != "" {
		db = db.Where("LOWER(name) = ?", strings.ToLower(q.Name))
	}
	if q.NameContains != "" {
		db = db.Where("LOWER(name) LIKE ?"+likeEscape, likePattern(q.NameContains))
	}
	if q.Price != nil {
		db = db.Where("price = ?", *q.Price)
	}
	if q.PriceLT != nil {
		db = db.Where("price < ?", *q.PriceLT)
	}
	if q.PriceGT != nil {
		db = db.Where("price > ?", *q.PriceGT)
	}
	if q.PriceRange != nil {
		db = db.Where("price BETWEEN ? AND ?", q.PriceRange[0], q.PriceRange[1])
	}
	if q.Search != "" {
		pattern := likePattern(q.Search)
		db = db.Where("LOWER(name) LIKE ?"+likeEscape+" OR LOWER(description) LIKE ?"+likeEscape, pattern, pattern)
	}

	order, ok := ProductOrderings[q.Ordering]
	if !ok {
		order = policy.DefaultOrder(policy.Products)
	}

	var products []model.Product
	if err := db.Order(order).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) Stats(ctx context.Context) (ProductStats, error) {
	var stats ProductStats
	row := r.db.WithContext(ctx).Model(&model.Product{}).
		Select("COUNT(*), MAX(price), MIN(price)").Row()
	if err := row.Scan(&stats.Count, &stats.MaxPrice, &stats.MinPrice); err != nil {
		return ProductStats{}, err
	}
	return stats, nil
}

// likeEscape marks '!' as the escape character of a LIKE pattern built by likePattern.
const likeEscape = " ESCAPE '!'"

// '[' only opens a character class on SQL Server; escaping it is harmless elsewhere.
var likeReplacer = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

// likePattern matches s as a literal, case-insensitive substring.
func likePattern(s string) string {
	return "%" + likeReplacer.Replace(strings.ToLower(s)) + "%"
}

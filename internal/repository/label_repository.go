package repository

import (
	"context"

	"gorm.io/gorm"

	"recipeshop/internal/model"
	"recipeshop/internal/policy"
)

// Label is a user-owned name attached to recipes.
type Label interface {
	model.Tag | model.Ingredient
}

// LabelRepository defines owner-scoped CRUD shared by tags and ingredients.
type LabelRepository[T Label] interface {
	Create(ctx context.Context, obj *T) error
	Update(ctx context.Context, obj *T) error
	Delete(ctx context.Context, f policy.Filter, id uint) error
	FindByID(ctx context.Context, f policy.Filter, id uint) (*T, error)
	List(ctx context.Context, f policy.Filter) ([]T, error)
}

type labelRepository[T Label] struct {
	db    *gorm.DB
	order string
	// recipe link table and the column pointing at this label
	linkTable  string
	linkColumn string
}

// NewTagRepository creates a tag repository.
func NewTagRepository(db *gorm.DB) LabelRepository[model.Tag] {
	return &labelRepository[model.Tag]{
		db:         db,
		order:      policy.DefaultOrder(policy.Tags),
		linkTable:  recipeTagsTable,
		linkColumn: "tag_id",
	}
}

// NewIngredientRepository creates an ingredient repository.
func NewIngredientRepository(db *gorm.DB) LabelRepository[model.Ingredient] {
	return &labelRepository[model.Ingredient]{
		db:         db,
		order:      policy.DefaultOrder(policy.Ingredients),
		linkTable:  recipeIngredientsTable,
		linkColumn: "ingredient_id",
	}
}

func (r *labelRepository[T]) Create(ctx context.Context, obj *T) error {
	return r.db.WithContext(ctx).Create(obj).Error
}

func (r *labelRepository[T]) Update(ctx context.Context, obj *T) error {
	return r.db.WithContext(ctx).Omit("User").Save(obj).Error
}

// Delete removes the label and detaches it from every recipe.
func (r *labelRepository[T]) Delete(ctx context.Context, f policy.Filter, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t T
		if err := tx.Scopes(f.Apply).Where("id = ?", id).First(&t).Error; err != nil {
			return translate(err)
		}
		if err := tx.Exec("DELETE FROM "+r.linkTable+" WHERE "+r.linkColumn+" = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&t).Error
	})
}

func (r *labelRepository[T]) FindByID(ctx context.Context, f policy.Filter, id uint) (*T, error) {
	var t T
	if err := r.db.WithContext(ctx).Scopes(f.Apply).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (r *labelRepository[T]) List(ctx context.Context, f policy.Filter) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Scopes(f.Apply).Order(r.order).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

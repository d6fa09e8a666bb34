package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recipeshop/internal/model"
	"recipeshop/internal/policy"
)

const (
	recipeTagsTable        = "recipe_tags"
	recipeIngredientsTable = "recipe_ingredients"
)

// RecipeQuery holds the recipe list filters.
type RecipeQuery struct {
	Title         string
	TagIDs        []uint
	IngredientIDs []uint
}

// RecipeRepository defines recipe persistence operations.
type RecipeRepository interface {
	// Create stores the recipe and links it to recipe.Tags and recipe.Ingredients.
	Create(ctx context.Context, recipe *model.Recipe) error
	// Update saves the recipe columns and, when asked, relinks its tags or ingredients.
	Update(ctx context.Context, recipe *model.Recipe, relinkTags, relinkIngredients bool) error
	UpdateImage(ctx context.Context, id uint, image string) error
	Delete(ctx context.Context, f policy.Filter, id uint) error
	FindByID(ctx context.Context, f policy.Filter, id uint) (*model.Recipe, error)
	List(ctx context.Context, f policy.Filter, q RecipeQuery) ([]model.Recipe, error)
	// FindTags returns the tags among ids owned by ownerID.
	FindTags(ctx context.Context, ownerID uint, ids []uint) ([]model.Tag, error)
	// FindIngredients returns the ingredients among ids owned by ownerID.
	FindIngredients(ctx context.Context, ownerID uint, ids []uint) ([]model.Ingredient, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RecipeRepository) error) error
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository.
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Create(ctx context.Context, recipe *model.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		if err := replaceLinks(tx, recipeTagsTable, "tag_id", recipe.ID, tagIDs(recipe.Tags)); err != nil {
			return err
		}
		return replaceLinks(tx, recipeIngredientsTable, "ingredient_id", recipe.ID, ingredientIDs(recipe.Ingredients))
	})
}

func (r *recipeRepository) Update(ctx context.Context, recipe *model.Recipe, relinkTags, relinkIngredients bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return err
		}
		if relinkTags {
			if err := replaceLinks(tx, recipeTagsTable, "tag_id", recipe.ID, tagIDs(recipe.Tags)); err != nil {
				return err
			}
		}
		if relinkIngredients {
			return replaceLinks(tx, recipeIngredientsTable, "ingredient_id", recipe.ID, ingredientIDs(recipe.Ingredients))
		}
		return nil
	})
}

func (r *recipeRepository) UpdateImage(ctx context.Context, id uint, image string) error {
	return r.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Update("image", image).Error
}

// Delete removes the recipe and its tag and ingredient links.
func (r *recipeRepository) Delete(ctx context.Context, f policy.Filter, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe model.Recipe
		if err := tx.Scopes(f.Apply).Where("id = ?", id).First(&recipe).Error; err != nil {
			return translate(err)
		}
		if err := replaceLinks(tx, recipeTagsTable, "tag_id", recipe.ID, nil); err != nil {
			return err
		}
		if err := replaceLinks(tx, recipeIngredientsTable, "ingredient_id", recipe.ID, nil); err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

func (r *recipeRepository) FindByID(ctx context.Context, f policy.Filter, id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	err := r.db.WithContext(ctx).Scopes(f.Apply, preloadLabels).
		Where("id = ?", id).First(&recipe).Error
	if err != nil {
		return nil, translate(err)
	}
	return &recipe, nil
}

func (r *recipeRepository) List(ctx context.Context, f policy.Filter, q RecipeQuery) ([]model.Recipe, error) {
	db := r.db.WithContext(ctx).Scopes(f.Apply, preloadLabels)

	if q.Title != "" {
		db = db.Where("LOWER(title) LIKE ?"+likeEscape, likePattern(q.Title))
	}
	if len(q.TagIDs) > 0 {
		db = db.Where("id IN (?)", r.db.Table(recipeTagsTable).Select("recipe_id").Where("tag_id IN ?", q.TagIDs))
	}
	if len(q.IngredientIDs) > 0 {
		db = db.Where("id IN (?)", r.db.Table(recipeIngredientsTable).Select("recipe_id").Where("ingredient_id IN ?", q.IngredientIDs))
	}

	var recipes []model.Recipe
	if err := db.Order(policy.DefaultOrder(policy.Recipes)).Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

func (r *recipeRepository) FindTags(ctx context.Context, ownerID uint, ids []uint) ([]model.Tag, error) {
	var tags []model.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ? AND user_id = ?", ids, ownerID).Order("id ASC").Find(&tags).Error
	return tags, err
}

func (r *recipeRepository) FindIngredients(ctx context.Context, ownerID uint, ids []uint) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ? AND user_id = ?", ids, ownerID).Order("id ASC").Find(&ingredients).Error
	return ingredients, err
}

// WithTransaction executes a function within a database transaction.
func (r *recipeRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RecipeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &recipeRepository{db: tx})
	})
}

func preloadLabels(db *gorm.DB) *gorm.DB {
	byID := func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }
	return db.Preload("Tags", byID).Preload("Ingredients", byID)
}

// replaceLinks rewrites the many2many rows of one recipe in table.
func replaceLinks(tx *gorm.DB, table, column string, recipeID uint, ids []uint) error {
	if err := tx.Exec("DELETE FROM "+table+" WHERE recipe_id = ?", recipeID).Error; err != nil {
		return err
	}
	insert := "INSERT INTO " + table + " (recipe_id, " + column + ") VALUES (?, ?)"
	for _, id := range ids {
		if err := tx.Exec(insert, recipeID, id).Error; err != nil {
			return err
		}
	}
	return nil
}

func tagIDs(tags []model.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func ingredientIDs(ingredients []model.Ingredient) []uint {
	ids := make([]uint, 0, len(ingredients))
	for _, i := range ingredients {
		ids = append(ids, i.ID)
	}
	return ids
}

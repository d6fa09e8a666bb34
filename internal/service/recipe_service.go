package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/logger"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/repository"
	"recipeshop/internal/storage"
)

const recipeImageDir = "uploads/recipe"

// RecipeInput is the full write representation of a recipe.
type RecipeInput struct {
	Title       string
	Description string
	TimeMinutes int
	Price       decimal.Decimal
	Link        string
	Tags        []uint
	Ingredients []uint
}

// RecipePatch lists the recipe fields to change. Nil fields are left untouched.
type RecipePatch struct {
	Title       *string
	Description *string
	TimeMinutes *int
	Price       *decimal.Decimal
	Link        *string
	Tags        *[]uint
	Ingredients *[]uint
}

// Patch converts a full input into a patch touching every field.
func (in RecipeInput) Patch() RecipePatch {
	tags := in.Tags
	if tags == nil {
		tags = []uint{}
	}
	ingredients := in.Ingredients
	if ingredients == nil {
		ingredients = []uint{}
	}
	return RecipePatch{
		Title:       &in.Title,
		Description: &in.Description,
		TimeMinutes: &in.TimeMinutes,
		Price:       &in.Price,
		Link:        &in.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	}
}

// ImageUpload is an uploaded recipe image.
type ImageUpload struct {
	Filename string
	Body     io.Reader
}

// RecipeService exposes recipe operations. Recipes are visible only to their owner.
type RecipeService interface {
	ListRecipes(ctx context.Context, caller policy.Caller, q repository.RecipeQuery) ([]model.Recipe, error)
	GetRecipe(ctx context.Context, caller policy.Caller, id uint) (*model.Recipe, error)
	CreateRecipe(ctx context.Context, caller policy.Caller, in RecipeInput) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, caller policy.Caller, id uint, patch RecipePatch) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, caller policy.Caller, id uint) error
	UploadImage(ctx context.Context, caller policy.Caller, id uint, upload ImageUpload) (*model.Recipe, error)
}

type recipeService struct {
	repo repository.RecipeRepository
	disk storage.Disk
}

// NewRecipeService creates a new recipe service. Uploaded images go to disk.
func NewRecipeService(repo repository.RecipeRepository, disk storage.Disk) RecipeService {
	return &recipeService{repo: repo, disk: disk}
}

func (s *recipeService) scope(caller policy.Caller) policy.Filter {
	return policy.ResolveScope(caller, policy.Recipes)
}

func (s *recipeService) ListRecipes(ctx context.Context, caller policy.Caller, q repository.RecipeQuery) ([]model.Recipe, error) {
	return s.repo.List(ctx, s.scope(caller), q)
}

func (s *recipeService) GetRecipe(ctx context.Context, caller policy.Caller, id uint) (*model.Recipe, error) {
	return s.repo.FindByID(ctx, s.scope(caller), id)
}

// CreateRecipe stores a recipe owned by the caller. Tag and ingredient
// references are resolved against the caller's own rows inside the same
// transaction as the insert, so a rejected reference writes nothing.
func (s *recipeService) CreateRecipe(ctx context.Context, caller policy.Caller, in RecipeInput) (*model.Recipe, error) {
	recipe := &model.Recipe{
		UserID:      caller.UserID,
		Title:       in.Title,
		Description: in.Description,
		TimeMinutes: in.TimeMinutes,
		Price:       in.Price,
		Link:        in.Link,
	}
	if err := validateRecipe(recipe); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.RecipeRepository) error {
		if err := resolveLabels(ctx, tx, recipe, in.Tags, in.Ingredients, true, true); err != nil {
			return err
		}
		return tx.Create(ctx, recipe)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, s.scope(caller), recipe.ID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, caller policy.Caller, id uint, patch RecipePatch) (*model.Recipe, error) {
	scope := s.scope(caller)
	err := s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.RecipeRepository) error {
		recipe, err := tx.FindByID(ctx, scope, id)
		if err != nil {
			return err
		}
		applyRecipePatch(recipe, patch)
		if err := validateRecipe(recipe); err != nil {
			return err
		}

		var tags, ingredients []uint
		if patch.Tags != nil {
			tags = *patch.Tags
		}
		if patch.Ingredients != nil {
			ingredients = *patch.Ingredients
		}
		relinkTags, relinkIngredients := patch.Tags != nil, patch.Ingredients != nil
		if err := resolveLabels(ctx, tx, recipe, tags, ingredients, relinkTags, relinkIngredients); err != nil {
			return err
		}
		return tx.Update(ctx, recipe, relinkTags, relinkIngredients)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, scope, id)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, caller policy.Caller, id uint) error {
	recipe, err := s.repo.FindByID(ctx, s.scope(caller), id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, s.scope(caller), id); err != nil {
		return err
	}
	s.removeImage(ctx, recipe.Image)
	return nil
}

// UploadImage stores an image under a fresh name and replaces the previous one.
func (s *recipeService) UploadImage(ctx context.Context, caller policy.Caller, id uint, upload ImageUpload) (*model.Recipe, error) {
	recipe, err := s.repo.FindByID(ctx, s.scope(caller), id)
	if err != nil {
		return nil, err
	}
	if upload.Body == nil {
		return nil, apperrors.NewValidationError("image", "No file was submitted.")
	}

	body := bufio.NewReader(upload.Body)
	head, _ := body.Peek(512)
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperrors.NewValidationError("image",
			"Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	ext := strings.ToLower(path.Ext(upload.Filename))
	if ext == "" {
		ext = "." + strings.TrimPrefix(contentType, "image/")
	}
	key := path.Join(recipeImageDir, uuid.New().String()+ext)
	if err := s.disk.Put(ctx, key, body, contentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if err := s.repo.UpdateImage(ctx, recipe.ID, key); err != nil {
		s.removeImage(ctx, key)
		return nil, fmt.Errorf("update image: %w", err)
	}
	s.removeImage(ctx, recipe.Image)

	recipe.Image = key
	return recipe, nil
}

// ImageURL returns the public URL of a stored image, or "" when there is none.
func ImageURL(disk storage.Disk, image string) string {
	if image == "" || disk == nil {
		return ""
	}
	return disk.URL(image)
}

func (s *recipeService) removeImage(ctx context.Context, image string) {
	if image == "" {
		return
	}
	if err := s.disk.Delete(ctx, image); err != nil {
		logger.L().Warn("failed to delete recipe image", zap.String("image", image), zap.Error(err))
	}
}

func applyRecipePatch(r *model.Recipe, p RecipePatch) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.TimeMinutes != nil {
		r.TimeMinutes = *p.TimeMinutes
	}
	if p.Price != nil {
		r.Price = *p.Price
	}
	if p.Link != nil {
		r.Link = *p.Link
	}
}

var maxRecipePrice = decimal.New(1, 3) // decimal(5,2)

func validateRecipe(r *model.Recipe) error {
	verr := &apperrors.ValidationError{}
	if strings.TrimSpace(r.Title) == "" {
		verr.Add("title", "This field may not be blank.")
	}
	if len(r.Title) > 255 {
		verr.Add("title", "Ensure this field has no more than 255 characters.")
	}
	if r.TimeMinutes < 0 {
		verr.Add("time_minutes", "Ensure this value is greater than or equal to 0.")
	}
	if r.Price.IsNegative() {
		verr.Add("price", "Ensure this value is greater than or equal to 0.")
	}
	if r.Price.GreaterThanOrEqual(maxRecipePrice) {
		verr.Add("price", "Ensure that there are no more than 5 digits in total.")
	}
	if len(r.Link) > 255 {
		verr.Add("link", "Ensure this field has no more than 255 characters.")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

// resolveLabels loads the referenced tags and ingredients owned by the
// recipe's owner. Missing and foreign ids are reported the same way.
func resolveLabels(ctx context.Context, repo repository.RecipeRepository, recipe *model.Recipe,
	tagIDs, ingredientIDs []uint, withTags, withIngredients bool) error {
	verr := &apperrors.ValidationError{}

	if withTags {
		ids := uniqueIDs(tagIDs)
		tags, err := repo.FindTags(ctx, recipe.UserID, ids)
		if err != nil {
			return fmt.Errorf("find tags: %w", err)
		}
		found := make(map[uint]bool, len(tags))
		for _, t := range tags {
			found[t.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				verr.Add("tags", fmt.Sprintf("invalid tag id %d", id))
			}
		}
		recipe.Tags = tags
	}

	if withIngredients {
		ids := uniqueIDs(ingredientIDs)
		ingredients, err := repo.FindIngredients(ctx, recipe.UserID, ids)
		if err != nil {
			return fmt.Errorf("find ingredients: %w", err)
		}
		found := make(map[uint]bool, len(ingredients))
		for _, i := range ingredients {
			found[i.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				verr.Add("ingredients", fmt.Sprintf("invalid ingredient id %d", id))
			}
		}
		recipe.Ingredients = ingredients
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

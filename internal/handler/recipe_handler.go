package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/policy"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
	"recipeshop/internal/storage"
)

// RecipeHandler serves the caller's recipes.
type RecipeHandler struct {
	recipeService service.RecipeService
	disk          storage.Disk
}

// NewRecipeHandler creates a new recipe handler. disk resolves image URLs.
func NewRecipeHandler(recipeService service.RecipeService, disk storage.Disk) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService, disk: disk}
}

// RecipeRequest is the full recipe write representation.
type RecipeRequest struct {
	Title       string           `json:"title" validate:"required,max=255"`
	Description string           `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"required,min=0"`
	Price       *decimal.Decimal `json:"price" validate:"required" swaggertype:"string"`
	Link        string           `json:"link" validate:"omitempty,max=255"`
	Tags        []uint           `json:"tags"`
	Ingredients []uint           `json:"ingredients"`
}

// RecipePatchRequest changes only the fields present.
type RecipePatchRequest struct {
	Title       *string          `json:"title" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitempty,min=0"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	Link        *string          `json:"link" validate:"omitempty,max=255"`
	Tags        *[]uint          `json:"tags"`
	Ingredients *[]uint          `json:"ingredients"`
}

// RecipeSummary is the list view of a recipe.
type RecipeSummary struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        string          `json:"link"`
	Tags        []LabelResponse `json:"tags"`
	Ingredients []LabelResponse `json:"ingredients"`
}

// RecipeDetail is the single-recipe view.
type RecipeDetail struct {
	RecipeSummary
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// RecipeImage is returned by the image upload action.
type RecipeImage struct {
	ID    uint    `json:"id"`
	Image *string `json:"image"`
}

func newRecipeSummary(r *model.Recipe) RecipeSummary {
	s := RecipeSummary{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        make([]LabelResponse, 0, len(r.Tags)),
		Ingredients: make([]LabelResponse, 0, len(r.Ingredients)),
	}
	for _, t := range r.Tags {
		s.Tags = append(s.Tags, LabelResponse{ID: t.ID, Name: t.Name})
	}
	for _, i := range r.Ingredients {
		s.Ingredients = append(s.Ingredients, LabelResponse{ID: i.ID, Name: i.Name})
	}
	return s
}

func (h *RecipeHandler) imageURL(r *model.Recipe) *string {
	url := service.ImageURL(h.disk, r.Image)
	if url == "" {
		return nil
	}
	return &url
}

// view renders a recipe in the shape the endpoint's rule selects.
func (h *RecipeHandler) view(action policy.Action, r *model.Recipe) any {
	rule, _ := policy.RuleFor(policy.Recipes, action)
	switch rule.Shape {
	case policy.ShapeRecipeSummary:
		return newRecipeSummary(r)
	case policy.ShapeRecipeImage:
		return RecipeImage{ID: r.ID, Image: h.imageURL(r)}
	default:
		return RecipeDetail{
			RecipeSummary: newRecipeSummary(r),
			Description:   r.Description,
			Image:         h.imageURL(r),
		}
	}
}

func parseIDList(c echo.Context, name string, verr *apperrors.ValidationError) []uint {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil {
			verr.Add(name, "Enter a comma separated list of ids.")
			return nil
		}
		ids = append(ids, uint(id))
	}
	return ids
}

// List godoc
// @Summary List the caller's recipes
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param tags query string false "Comma separated tag ids"
// @Param ingredients query string false "Comma separated ingredient ids"
// @Param name query string false "Title substring"
// @Success 200 {array} RecipeSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/recipes/ [get]
func (h *RecipeHandler) List(c echo.Context) error {
	verr := &apperrors.ValidationError{}
	q := repository.RecipeQuery{
		Title:         c.QueryParam("name"),
		TagIDs:        parseIDList(c, "tags", verr),
		IngredientIDs: parseIDList(c, "ingredients", verr),
	}
	if !verr.Empty() {
		return fail(c, verr)
	}

	recipes, err := h.recipeService.ListRecipes(c.Request().Context(), caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	resp := make([]any, 0, len(recipes))
	for i := range recipes {
		resp = append(resp, h.view(policy.ActionList, &recipes[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a recipe
// @Tags recipes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 200 {object} RecipeDetail
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/ [get]
func (h *RecipeHandler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	recipe, err := h.recipeService.GetRecipe(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(policy.ActionRetrieve, recipe))
}

// Create godoc
// @Summary Create a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecipeRequest true "Recipe data"
// @Success 201 {object} RecipeDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /recipe/recipes/ [post]
func (h *RecipeHandler) Create(c echo.Context) error {
	var req RecipeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request().Context(), caller(c), req.input())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, h.view(policy.ActionCreate, recipe))
}

func (r RecipeRequest) input() service.RecipeInput {
	return service.RecipeInput{
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: *r.TimeMinutes,
		Price:       *r.Price,
		Link:        r.Link,
		Tags:        r.Tags,
		Ingredients: r.Ingredients,
	}
}

// Update godoc
// @Summary Replace a recipe
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param request body RecipeRequest true "Recipe data"
// @Success 200 {object} RecipeDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/ [put]
func (h *RecipeHandler) Update(c echo.Context) error {
	var req RecipeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.patch(c, policy.ActionUpdate, req.input().Patch())
}

// Patch godoc
// @Summary Update some recipe fields
// @Tags recipes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param request body RecipePatchRequest true "Recipe data"
// @Success 200 {object} RecipeDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/ [patch]
func (h *RecipeHandler) Patch(c echo.Context) error {
	var req RecipePatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.patch(c, policy.ActionPartialUpdate, service.RecipePatch{
		Title:       req.Title,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	})
}

func (h *RecipeHandler) patch(c echo.Context, action policy.Action, patch service.RecipePatch) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	recipe, err := h.recipeService.UpdateRecipe(c.Request().Context(), caller(c), id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(action, recipe))
}

// Delete godoc
// @Summary Delete a recipe
// @Tags recipes
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/ [delete]
func (h *RecipeHandler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.recipeService.DeleteRecipe(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage godoc
// @Summary Upload a recipe image
// @Tags recipes
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Recipe ID"
// @Param image formData file true "Image file"
// @Success 200 {object} RecipeImage
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /recipe/recipes/{id}/upload-image/ [post]
func (h *RecipeHandler) UploadImage(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("image")
	if err != nil {
		return fail(c, apperrors.NewValidationError("image", "No file was submitted."))
	}
	file, err := header.Open()
	if err != nil {
		return fail(c, err)
	}
	defer file.Close()

	recipe, err := h.recipeService.UploadImage(c.Request().Context(), caller(c), id, service.ImageUpload{
		Filename: header.Filename,
		Body:     file,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.view(policy.ActionUploadImage, recipe))
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeshop/internal/model"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
)

// LabelRequest is the write representation of a tag or ingredient.
type LabelRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// LabelPatchRequest is the partial write representation. An absent name
// leaves the label unchanged.
type LabelPatchRequest struct {
	Name *string `json:"name" validate:"omitempty,max=255"`
}

// LabelResponse is the view of a tag or ingredient.
type LabelResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LabelHandler serves the caller's tags or ingredients.
type LabelHandler[T repository.Label] struct {
	labels  service.LabelService[T]
	respond func(*T) LabelResponse
}

// NewTagHandler creates the tag handler.
func NewTagHandler(tags service.LabelService[model.Tag]) *LabelHandler[model.Tag] {
	return &LabelHandler[model.Tag]{
		labels:  tags,
		respond: func(t *model.Tag) LabelResponse { return LabelResponse{ID: t.ID, Name: t.Name} },
	}
}

// NewIngredientHandler creates the ingredient handler.
func NewIngredientHandler(ingredients service.LabelService[model.Ingredient]) *LabelHandler[model.Ingredient] {
	return &LabelHandler[model.Ingredient]{
		labels:  ingredients,
		respond: func(i *model.Ingredient) LabelResponse { return LabelResponse{ID: i.ID, Name: i.Name} },
	}
}

// List godoc
// @Summary List the caller's tags or ingredients
// @Tags labels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} LabelResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tags/ [get]
// @Router /ingredients/ [get]
func (h *LabelHandler[T]) List(c echo.Context) error {
	items, err := h.labels.List(c.Request().Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	resp := make([]LabelResponse, 0, len(items))
	for i := range items {
		resp = append(resp, h.respond(&items[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Get a tag or ingredient
// @Tags labels
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 200 {object} LabelResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id}/ [get]
// @Router /ingredients/{id}/ [get]
func (h *LabelHandler[T]) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	item, err := h.labels.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.respond(item))
}

// Create godoc
// @Summary Create a tag or ingredient
// @Tags labels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LabelRequest true "Name"
// @Success 201 {object} LabelResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /tags/ [post]
// @Router /ingredients/ [post]
func (h *LabelHandler[T]) Create(c echo.Context) error {
	var req LabelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	item, err := h.labels.Create(c.Request().Context(), caller(c), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, h.respond(item))
}

// Update godoc
// @Summary Rename a tag or ingredient
// @Tags labels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Param request body LabelRequest true "Name"
// @Success 200 {object} LabelResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id}/ [put]
// @Router /ingredients/{id}/ [put]
func (h *LabelHandler[T]) Update(c echo.Context) error {
	var req LabelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}
	item, err := h.labels.Rename(c.Request().Context(), caller(c), id, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.respond(item))
}

// Patch godoc
// @Summary Partially update a tag or ingredient
// @Tags labels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID"
// @Param request body LabelPatchRequest true "Fields to change"
// @Success 200 {object} LabelResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id}/ [patch]
// @Router /ingredients/{id}/ [patch]
func (h *LabelHandler[T]) Patch(c echo.Context) error {
	var req LabelPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	id, err := idParam(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var item *T
	if req.Name == nil {
		item, err = h.labels.Get(ctx, caller(c), id)
	} else {
		item, err = h.labels.Rename(ctx, caller(c), id, *req.Name)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, h.respond(item))
}

// Delete godoc
// @Summary Delete a tag or ingredient
// @Tags labels
// @Security BearerAuth
// @Param id path int true "ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /tags/{id}/ [delete]
// @Router /ingredients/{id}/ [delete]
func (h *LabelHandler[T]) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.labels.Delete(c.Request().Context(), caller(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	apperrors "recipeshop/internal/errors"
	"recipeshop/internal/model"
	"recipeshop/internal/repository"
	"recipeshop/internal/service"
)

// ProductHandler serves the public catalog and its staff-only writes.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest is the full product write representation.
type ProductRequest struct {
	Name        *string          `json:"name" validate:"required,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required" swaggertype:"string"`
	Stock       *int             `json:"stock" validate:"required,min=0"`
}

// ProductPatchRequest changes only the fields present.
type ProductPatchRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"string"`
	Stock       *int             `json:"stock" validate:"omitempty,min=0"`
}

// ProductResponse is the public view of a product.
type ProductResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	InStock     bool   `json:"in_stock"`
}

// ProductInfoResponse summarizes the catalog.
type ProductInfoResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int64             `json:"count"`
	MaxPrice *string           `json:"max_price"`
	MinPrice *string           `json:"min_price"`
}

func newProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		InStock:     p.InStock(),
	}
}

func newProductList(products []model.Product) []ProductResponse {
	resp := make([]ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, newProductResponse(&products[i]))
	}
	return resp
}

func fixedOrNil(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(2)
	return &s
}

// parseProductQuery reads the catalog filters. Unknown ordering values are
// dropped so they share the cache entry of the unordered list.
func parseProductQuery(c echo.Context) (repository.ProductQuery, error) {
	q := repository.ProductQuery{
		Name:         c.QueryParam("name"),
		NameContains: c.QueryParam("name__icontains"),
		Search:       c.QueryParam("search"),
	}
	if ordering := c.QueryParam("ordering"); ordering != "" {
		if _, ok := repository.ProductOrderings[ordering]; ok {
			q.Ordering = ordering
		}
	}

	verr := &apperrors.ValidationError{}
	decimalParam := func(name string) *decimal.Decimal {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			verr.Add(name, "Enter a number.")
			return nil
		}
		return &d
	}
	q.Price = decimalParam("price")
	q.PriceLT = decimalParam("price__lt")
	q.PriceGT = decimalParam("price__gt")

	if raw := c.QueryParam("price__range"); raw != "" {
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			verr.Add("price__range", "Enter two numbers separated by a comma.")
		} else {
			lo, errLo := decimal.NewFromString(strings.TrimSpace(parts[0]))
			hi, errHi := decimal.NewFromString(strings.TrimSpace(parts[1]))
			if errLo != nil || errHi != nil {
				verr.Add("price__range", "Enter a number.")
			} else {
				q.PriceRange = &[2]decimal.Decimal{lo, hi}
			}
		}
	}

	if !verr.Empty() {
		return q, verr
	}
	return q, nil
}

// List godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param name query string false "Exact name, case-insensitive"
// @Param name__icontains query string false "Name substring"
// @Param price query string false "Exact price"
// @Param price__lt query string false "Price below"
// @Param price__gt query string false "Price above"
// @Param price__range query string false "Inclusive range a,b"
// @Param search query string false "Name or description substring"
// @Param ordering query string false "name, -name, price, -price, stock, -stock, id, -id"
// @Success 200 {array} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	q, err := parseProductQuery(c)
	if err != nil {
		return fail(c, err)
	}
	products, err := h.productService.ListProducts(c.Request().Context(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductList(products))
}

// Info godoc
// @Summary Catalog summary
// @Tags products
// @Produce json
// @Success 200 {object} ProductInfoResponse
// @Router /products/info [get]
func (h *ProductHandler) Info(c echo.Context) error {
	info, err := h.productService.ProductInfo(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ProductInfoResponse{
		Products: newProductList(info.Products),
		Count:    info.Count,
		MaxPrice: fixedOrNil(info.MaxPrice),
		MinPrice: fixedOrNil(info.MinPrice),
	})
}

// Get godoc
// @Summary Get a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

// Create godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product data"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	in := service.ProductInput{Name: *req.Name, Price: *req.Price, Stock: *req.Stock}
	if req.Description != nil {
		in.Description = *req.Description
	}
	product, err := h.productService.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, newProductResponse(product))
}

// Update godoc
// @Summary Replace a product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product data"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	return h.patch(c, service.ProductPatch{Name: req.Name, Description: &description, Price: req.Price, Stock: req.Stock})
}

// Patch godoc
// @Summary Update some product fields
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductPatchRequest true "Product data"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [patch]
func (h *ProductHandler) Patch(c echo.Context) error {
	var req ProductPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.patch(c, service.ProductPatch{Name: req.Name, Description: req.Description, Price: req.Price, Stock: req.Stock})
}

func (h *ProductHandler) patch(c echo.Context, patch service.ProductPatch) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	product, err := h.productService.UpdateProduct(c.Request().Context(), id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductResponse(product))
}

// Delete godoc
// @Summary Delete a product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

// ProductHandler serves the catalog. Mutating routes sit behind
// middleware.RequireAdmin.
type ProductHandler struct {
	catalog ports.CatalogService
}

func NewProductHandler(catalog ports.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// List handles GET /products.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200  {array}  domain.Product
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.catalog.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// Get handles GET /products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.catalog.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Add handles POST /products?userId=.
//
// @Summary      Add a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        userId  query     string          true  "Acting admin id"
// @Param        body    body      domain.Product  true  "Product"
// @Success      201     {object}  domain.Product
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /products [post]
func (h *ProductHandler) Add(c echo.Context) error {
	var req domain.Product
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}

	p, err := h.catalog.Add(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /products/:id?userId=.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id      path      string          true  "Product id"
// @Param        userId  query     string          true  "Acting admin id"
// @Param        body    body      domain.Product  true  "Product"
// @Success      200     {object}  domain.Product
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req domain.Product
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}

	p, err := h.catalog.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /products/:id?userId=.
//
// @Summary      Delete a product
// @Tags         products
// @Param        id      path  string  true  "Product id"
// @Param        userId  query string  true  "Acting admin id"
// @Success      204
// @Failure      403     {object}  map[string]string
// @Failure      404     {object}  map[string]string
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	if err := h.catalog.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddReview handles POST /products/:id/review. When the request carries a
// token, the review must be written under the token's user.
//
// @Summary      Review a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string         true  "Product id"
// @Param        body  body      domain.Review  true  "Review"
// @Success      201   {object}  domain.Product
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /products/{id}/review [post]
func (h *ProductHandler) AddReview(c echo.Context) error {
	var req domain.Review
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if sub := tokenUser(c); sub != "" && req.UserID != sub {
		return fmt.Errorf("review as %q: %w", req.UserID, domain.ErrUnauthorized)
	}

	p, err := h.catalog.AddReview(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

type CartHandler struct {
	carts ports.CartService
}

func NewCartHandler(carts ports.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addToCartRequest struct {
	UserID   string          `json:"userId"`
	LineItem domain.LineItem `json:"lineItem"`
}

// Get handles GET /cart/:id where id is the owner's user id.
//
// @Summary      Get a user's cart
// @Tags         cart
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.Cart
// @Failure      404  {object}  map[string]string
// @Router       /cart/{id} [get]
func (h *CartHandler) Get(c echo.Context) error {
	cart, err := h.carts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// Add handles POST /cart.
//
// @Summary      Add a line item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addToCartRequest  true  "Owner and line item"
// @Success      200   {object}  domain.Cart
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /cart [post]
func (h *CartHandler) Add(c echo.Context) error {
	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}

	cart, err := h.carts.AddLineItem(c.Request().Context(), req.UserID, req.LineItem)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

// Remove handles DELETE /cart/:id?userId= where id is the line item trueId.
//
// @Summary      Remove a line item
// @Tags         cart
// @Produce      json
// @Param        id      path      string  true  "Line item trueId"
// @Param        userId  query     string  true  "Owner id"
// @Success      200     {object}  domain.Cart
// @Failure      404     {object}  map[string]string
// @Router       /cart/{id} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	cart, err := h.carts.RemoveLineItem(c.Request().Context(), c.QueryParam("userId"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cart)
}

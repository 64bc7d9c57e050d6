package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minimal/storefront/internal/core/domain"
	"github.com/minimal/storefront/internal/core/ports"
)

type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type placeOrderRequest struct {
	Address      string `json:"address"`
	DeliveryDate string `json:"deliveryDate"`
}

// Place handles POST /orders/:id where id is the cart id.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Cart id"
// @Param        body  body      placeOrderRequest  true  "Address and delivery date"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /orders/{id} [post]
func (h *OrderHandler) Place(c echo.Context) error {
	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}

	var delivery time.Time
	if s := strings.TrimSpace(req.DeliveryDate); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("%w: deliveryDate must be RFC 3339", domain.ErrValidation)
		}
		delivery = t
	}

	order, err := h.orders.Place(c.Request().Context(), c.Param("id"), req.Address, delivery)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// List handles GET /orders/:id where id is the owner's user id.
//
// @Summary      List a user's orders
// @Tags         orders
// @Produce      json
// @Param        id   path   string  true  "User id"
// @Success      200  {array}  domain.Order
// @Router       /orders/{id} [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orders.ListByUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// Details handles GET /orders/details/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  map[string]string
// @Router       /orders/details/{id} [get]
func (h *OrderHandler) Details(c echo.Context) error {
	order, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Delete handles DELETE /orders/:id and answers with the owner's remaining
// orders.
//
// @Summary      Delete an order
// @Tags         orders
// @Produce      json
// @Param        id   path   string  true  "Order id"
// @Success      200  {array}  domain.Order
// @Failure      404  {object}  map[string]string
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	remaining, err := h.orders.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, remaining)
}

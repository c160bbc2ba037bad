package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chktr_back_end/internal/models"
)

type CartItemHandler struct {
	carts CartStore
}

func NewCartItemHandler(carts CartStore) *CartItemHandler {
	return &CartItemHandler{carts: carts}
}

// 🟢 GET /api/cartitem/:key/:index
func (h *CartItemHandler) Get(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	item, err := h.carts.GetItem(c.Request.Context(), id, index)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// 🟡 POST /api/cartitem/:key
func (h *CartItemHandler) Add(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	var item models.CartItem
	if !bindBody(c, &item) {
		return
	}

	if err := h.carts.AddItem(c.Request.Context(), id, &item); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// 🟠 PUT /api/cartitem/:key
// La ligne remplacée est celle qui a la même description.
func (h *CartItemHandler) Replace(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	var item models.CartItem
	if !bindBody(c, &item) {
		return
	}

	if err := h.carts.ReplaceItem(c.Request.Context(), id, &item); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// 🔴 DELETE /api/cartitem/:key/:index
func (h *CartItemHandler) Delete(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), id, index); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

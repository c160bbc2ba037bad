package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chktr_back_end/internal/models"
)

type CartHandler struct {
	carts CartStore
}

func NewCartHandler(carts CartStore) *CartHandler {
	return &CartHandler{carts: carts}
}

// 🟢 GET /api/cart/:key
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if cart == nil {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// 🟡 POST /api/cart
// Répond la nouvelle clé sous forme de chaîne JSON.
func (h *CartHandler) Create(c *gin.Context) {
	var cart models.Cart
	if !bindBody(c, &cart) {
		return
	}

	id := uuid.New()
	if err := h.carts.Create(c.Request.Context(), id, &cart); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, id.String())
}

// 🟠 PUT /api/cart/:key
// Ne crée jamais de panier : la cible doit exister.
func (h *CartHandler) Update(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	var cart models.Cart
	if !bindBody(c, &cart) {
		return
	}

	ctx := c.Request.Context()
	current, err := h.carts.GetCart(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	if current == nil {
		c.Status(http.StatusNotFound)
		return
	}

	if err := h.carts.Update(ctx, id, &cart); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// 🔴 DELETE /api/cart/:key
func (h *CartHandler) Delete(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	if err := h.carts.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

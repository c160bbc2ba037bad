package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chktr_back_end/internal/models"
	"chktr_back_end/internal/services"
)

// MaxItemIndex borne l'index accepté dans les routes /api/cartitem.
const MaxItemIndex = 9999

// Messages renvoyés tels quels aux clients existants
const (
	msgMissingBody   = "Missing Body"
	msgCartNotFound  = "Cart Not Found"
	msgDuplicateItem = "Can't insert a duplicated Item."
	msgNoItems       = "Cart do not have any Items."
	msgItemNotInCart = "Cart do not have this Item."
)

// CartStore regroupe les opérations du service panier utilisées par les handlers.
type CartStore interface {
	GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	Create(ctx context.Context, id uuid.UUID, cart *models.Cart) error
	Update(ctx context.Context, id uuid.UUID, cart *models.Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetItem(ctx context.Context, id uuid.UUID, index int) (*models.CartItem, error)
	AddItem(ctx context.Context, id uuid.UUID, item *models.CartItem) error
	ReplaceItem(ctx context.Context, id uuid.UUID, item *models.CartItem) error
	RemoveItem(ctx context.Context, id uuid.UUID, index int) error
}

// parseKey lit :key. Une clé qui n'est pas un UUID se comporte comme une route inconnue.
func parseKey(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("key"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// parseIndex lit :index, un entier entre 0 et MaxItemIndex.
func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index > MaxItemIndex {
		c.Status(http.StatusNotFound)
		return 0, false
	}
	return index, true
}

// bindBody décode et valide le corps JSON ; en cas d'échec la réponse 400 est déjà écrite.
func bindBody(c *gin.Context, obj any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		c.JSON(http.StatusBadRequest, models.NewModelError(msgMissingBody))
		return false
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, models.NewModelError(msgMissingBody))
			return false
		}
		c.JSON(http.StatusBadRequest, models.ModelErrorFrom(err))
		return false
	}
	return true
}

// writeError traduit les erreurs du service en codes HTTP.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, services.ErrMissingArgument):
		c.JSON(http.StatusBadRequest, models.NewModelError(err.Error()))
	case errors.Is(err, services.ErrCartNotFound):
		c.JSON(http.StatusNotFound, msgCartNotFound)
	case errors.Is(err, services.ErrCartHasNoItems):
		c.JSON(http.StatusNotFound, msgNoItems)
	case errors.Is(err, services.ErrItemNotInCart):
		c.JSON(http.StatusNotFound, msgItemNotInCart)
	case errors.Is(err, services.ErrItemNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, services.ErrDuplicateItem):
		c.String(http.StatusInternalServerError, msgDuplicateItem)
	default:
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.String(http.StatusInternalServerError, err.Error())
	}
}

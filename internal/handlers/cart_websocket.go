package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/models"
	"chktr_back_end/internal/services"
)

// WatchPingInterval : un ping est envoyé après 30 s sans événement.
const WatchPingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Toutes les origines : l'accès est contrôlé par la clé d'API
		return true
	},
}

// CartEvent est le message envoyé aux clients abonnés.
type CartEvent struct {
	Type    string       `json:"type"`
	Message string       `json:"message,omitempty"`
	Cart    *models.Cart `json:"cart,omitempty"`
	Total   float64      `json:"total"`
}

type WatchHandler struct {
	carts  CartStore
	broker cache.Subscriber
}

func NewWatchHandler(carts CartStore, broker cache.Subscriber) *WatchHandler {
	return &WatchHandler{carts: carts, broker: broker}
}

// 🔌 GET /api/cart/:key/watch
// Synchronisation temps réel d'un panier.
func (h *WatchHandler) Watch(c *gin.Context) {
	id, ok := parseKey(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	sub, err := h.broker.Subscribe(ctx, services.CartEventsChannel(id))
	if err != nil {
		writeError(c, err)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	// Lecture en tâche de fond : nécessaire pour traiter les frames de contrôle et détecter la fermeture
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(CartEvent{Type: "connected", Message: "Synchronisation panier activée"}); err != nil {
		return
	}

	timer := time.NewTimer(WatchPingInterval)
	defer timer.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case event, ok := <-sub.Messages():
			if !ok {
				return
			}
			response := CartEvent{Type: "cart_" + event}
			if event != services.EventDeleted {
				cart, err := h.carts.GetCart(ctx, id)
				if err != nil {
					log.Printf("❌ Erreur lecture panier %s: %v", id, err)
				} else if cart != nil {
					response.Cart = cart
					response.Total = cart.Total()
				}
			}
			if err := conn.WriteJSON(response); err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
			timer.Reset(WatchPingInterval)
		case <-timer.C:
			// Ping pour garder la connexion active
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
			timer.Reset(WatchPingInterval)
		}
	}
}

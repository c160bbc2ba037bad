package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/models"
)

// DefaultCartTTL : un panier expire un jour après sa dernière écriture.
const DefaultCartTTL = 24 * time.Hour

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingArgument = errors.New("missing argument")
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrDuplicateItem   = errors.New("can't insert a duplicated item")

	// Cas particuliers de ErrItemNotFound pour le remplacement d'une ligne
	ErrCartHasNoItems = fmt.Errorf("%w: cart has no items", ErrItemNotFound)
	ErrItemNotInCart  = fmt.Errorf("%w: cart does not have this item", ErrItemNotFound)
)

// Événements publiés après chaque écriture réussie
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// CartEventsChannel est le canal pub/sub des changements d'un panier.
func CartEventsChannel(id uuid.UUID) string {
	return "cart-events:" + id.String()
}

// CartService fait le lien entre les paniers et le cache clé/valeur.
type CartService struct {
	cache     cache.Cache
	ttl       time.Duration
	publisher cache.Publisher
}

// NewCartService accepte un publisher nil : aucun événement n'est alors émis.
func NewCartService(store cache.Cache, ttl time.Duration, publisher cache.Publisher) *CartService {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartService{
		cache:     store,
		ttl:       ttl,
		publisher: publisher,
	}
}

func checkID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: cart id is empty", ErrInvalidArgument)
	}
	return nil
}

// checkCart s'exécute avant toute écriture : un montant infini rendrait le panier impossible à encoder.
func checkCart(cart *models.Cart) error {
	if cart == nil {
		return fmt.Errorf("%w: cart is nil", ErrMissingArgument)
	}
	if err := cart.CheckAmounts(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}

// GetCart retourne (nil, nil) si le panier n'existe pas.
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	data, err := s.cache.Get(ctx, id.String())
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cart models.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("décodage panier %s: %w", id, err)
	}
	return &cart, nil
}

// Create écrit un nouveau panier avec une expiration absolue.
func (s *CartService) Create(ctx context.Context, id uuid.UUID, cart *models.Cart) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := checkCart(cart); err != nil {
		return err
	}

	if err := s.write(ctx, id, cart); err != nil {
		return err
	}
	s.publish(ctx, id, EventCreated)
	return nil
}

// Update supprime puis réécrit le panier (l'expiration repart de zéro).
// Les deux appels ne sont pas atomiques : un lecteur concurrent peut voir le panier absent entre les deux.
func (s *CartService) Update(ctx context.Context, id uuid.UUID, cart *models.Cart) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := checkCart(cart); err != nil {
		return err
	}

	if err := s.cache.Delete(ctx, id.String()); err != nil {
		return err
	}
	if err := s.write(ctx, id, cart); err != nil {
		return err
	}
	s.publish(ctx, id, EventUpdated)
	return nil
}

// Delete ne signale pas l'absence du panier.
func (s *CartService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, id.String()); err != nil {
		return err
	}
	s.publish(ctx, id, EventDeleted)
	return nil
}

func (s *CartService) write(ctx context.Context, id uuid.UUID, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encodage panier %s: %w", id, err)
	}
	return s.cache.Set(ctx, id.String(), data, s.ttl)
}

func (s *CartService) publish(ctx context.Context, id uuid.UUID, event string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, CartEventsChannel(id), event); err != nil {
		log.Printf("⚠️ Erreur publication événement %s pour le panier %s: %v", event, id, err)
	}
}

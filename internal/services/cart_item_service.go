package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"chktr_back_end/internal/models"
)

// Les opérations sur les lignes chargent le panier parent, le modifient
// puis le réécrivent en entier via Update.

func (s *CartService) mutate(ctx context.Context, id uuid.UUID, fn func(cart *models.Cart) error) error {
	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartNotFound
	}
	if err := fn(cart); err != nil {
		return err
	}
	return s.Update(ctx, id, cart)
}

// GetItem retourne la ligne à l'index donné (base 0).
func (s *CartService) GetItem(ctx context.Context, id uuid.UUID, index int) (*models.CartItem, error) {
	cart, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	item, ok := cart.ItemAt(index)
	if !ok {
		return nil, fmt.Errorf("%w: no item at index %d", ErrItemNotFound, index)
	}
	return item, nil
}

// AddItem ajoute une ligne en fin de liste ; une Description déjà présente est refusée.
func (s *CartService) AddItem(ctx context.Context, id uuid.UUID, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrMissingArgument)
	}
	return s.mutate(ctx, id, func(cart *models.Cart) error {
		if cart.IndexOf(*item) >= 0 {
			return ErrDuplicateItem
		}
		cart.Items = append(cart.Items, *item)
		return nil
	})
}

// ReplaceItem remplace la ligne de même Description, à sa position.
func (s *CartService) ReplaceItem(ctx context.Context, id uuid.UUID, item *models.CartItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrMissingArgument)
	}
	return s.mutate(ctx, id, func(cart *models.Cart) error {
		if len(cart.Items) == 0 {
			return ErrCartHasNoItems
		}
		idx := cart.IndexOf(*item)
		if idx < 0 {
			return ErrItemNotInCart
		}
		cart.Items[idx] = *item
		return nil
	})
}

// RemoveItem supprime la ligne à l'index donné en conservant l'ordre des autres.
func (s *CartService) RemoveItem(ctx context.Context, id uuid.UUID, index int) error {
	return s.mutate(ctx, id, func(cart *models.Cart) error {
		if index < 0 || index >= len(cart.Items) {
			return fmt.Errorf("%w: no item at index %d", ErrItemNotFound, index)
		}
		cart.Items = append(cart.Items[:index], cart.Items[index+1:]...)
		return nil
	})
}

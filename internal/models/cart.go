package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrAmountOutOfRange : un sous-total ou le total dépasse la plage des float64.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Cart est l'agrégat persisté : la clé du panier n'est pas dans la valeur,
// c'est la clé de l'entrée dans le cache.
type Cart struct {
	Firstname string     `json:"firstname" binding:"required,min=3,max=50"`
	Lastname  string     `json:"lastname" binding:"required,min=3,max=50"`
	Items     []CartItem `json:"items" binding:"omitempty,dive"`
}

// CartItem est une ligne du panier. Description sert de clé d'égalité.
type CartItem struct {
	Description string  `json:"description" binding:"required,min=3,max=50"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
	UnitPrice   float64 `json:"unitPrice" binding:"gte=0"`
}

// Key retourne la clé d'unicité d'une ligne dans un panier.
func (i CartItem) Key() string {
	return i.Description
}

func (i CartItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// Total vaut 0 quand Items est vide ou nil.
func (c *Cart) Total() float64 {
	if c == nil {
		return 0
	}
	total := 0.0
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// CheckAmounts vérifie que chaque sous-total et le total restent des nombres finis,
// sans quoi le panier ne peut pas être encodé en JSON.
func (c *Cart) CheckAmounts() error {
	if c == nil {
		return nil
	}
	for i, item := range c.Items {
		if !finite(item.Subtotal()) {
			return fmt.Errorf("%w: Items[%d].Subtotal", ErrAmountOutOfRange, i)
		}
	}
	if !finite(c.Total()) {
		return fmt.Errorf("%w: Total", ErrAmountOutOfRange)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// IndexOf cherche une ligne par sa clé (Description), -1 si absente.
func (c *Cart) IndexOf(item CartItem) int {
	if c == nil {
		return -1
	}
	key := item.Key()
	for i := range c.Items {
		if c.Items[i].Key() == key {
			return i
		}
	}
	return -1
}

// ItemAt retourne la ligne à l'index donné (base 0).
func (c *Cart) ItemAt(index int) (*CartItem, bool) {
	if c == nil || index < 0 || index >= len(c.Items) {
		return nil, false
	}
	item := c.Items[index]
	return &item, true
}

// Les champs dérivés (subtotal, total) sont émis à l'encodage et ignorés au décodage.

func (i CartItem) MarshalJSON() ([]byte, error) {
	type plain CartItem
	return json.Marshal(struct {
		plain
		Subtotal float64 `json:"subtotal"`
	}{plain(i), i.Subtotal()})
}

func (c Cart) MarshalJSON() ([]byte, error) {
	type plain Cart
	return json.Marshal(struct {
		plain
		Total float64 `json:"total"`
	}{plain(c), c.Total()})
}

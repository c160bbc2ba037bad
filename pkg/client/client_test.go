package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/config"
	"chktr_back_end/internal/routes"
	"chktr_back_end/internal/services"
	"chktr_back_end/internal/utils"
)

const testKey = "test-api-key"

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := utils.HashSecret("shop-secret")
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		APIKey:    testKey,
		Clients:   config.ClientRegistry{"shop": hash},
		JWTSecret: []byte("test-secret"),
		TokenTTL:  time.Hour,
	}
	store := cache.NewMemoryCache()

	r := routes.NewEngine(cfg)
	routes.RegisterRoutes(r, routes.Deps{
		Config: cfg,
		Carts:  services.NewCartService(store, 0, store),
		Store:  store,
		Auth:   cache.NewAuthCache(store),
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func sampleCart() *Cart {
	return &Cart{
		Firstname: "Ann",
		Lastname:  "Lee",
		Items:     []CartItem{{Description: "Pen", Quantity: 2, UnitPrice: 1.5}},
	}
}

func TestNewValidatesArguments(t *testing.T) {
	cases := []struct {
		name           string
		app, key, host string
		want           error
	}{
		{"missing app", "", "k", DefaultHost, ErrMissingArgument},
		{"missing key", "test", "", DefaultHost, ErrMissingArgument},
		{"missing host", "test", "k", "", ErrMissingArgument},
		{"relative host", "test", "k", "localhost:5000/api", ErrInvalidHost},
		{"not a url", "test", "k", "::::", ErrInvalidHost},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.app, tc.key, tc.host); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	c, err := NewDefault("test", "k")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL.String() != DefaultHost || c.AppName() != "test" {
		t.Fatalf("client = %+v", c)
	}
}

func TestCartLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t)
	c, err := New("test", testKey, srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	id, err := c.Create(ctx, sampleCart())
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.GetCart(ctx, id)
	if err != nil || got == nil {
		t.Fatalf("GetCart = %+v, %v", got, err)
	}
	if got.Firstname != "Ann" || got.Total() != 3.0 {
		t.Fatalf("cart = %+v", got)
	}

	updated := sampleCart()
	updated.Firstname = "Bob"
	ok, err := c.Update(ctx, id, updated)
	if err != nil || !ok {
		t.Fatalf("Update = %v, %v", ok, err)
	}

	ok, err = c.Delete(ctx, id)
	if err != nil || !ok {
		t.Fatalf("Delete = %v, %v", ok, err)
	}
	// Le serveur répond 200 même si le panier n'existe plus
	if ok, err := c.Delete(ctx, id); err != nil || !ok {
		t.Fatalf("second Delete = %v, %v", ok, err)
	}

	got, err = c.GetCart(ctx, id)
	if err != nil || got != nil {
		t.Fatalf("GetCart after delete = %+v, %v", got, err)
	}
}

func TestNotFoundIsEmptyResult(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t)
	c, _ := New("test", testKey, srv.URL)
	unknown := uuid.New()

	if cart, err := c.GetCart(ctx, unknown); err != nil || cart != nil {
		t.Fatalf("GetCart = %+v, %v", cart, err)
	}
	if ok, err := c.Update(ctx, unknown, sampleCart()); err != nil || ok {
		t.Fatalf("Update = %v, %v", ok, err)
	}
	if item, err := c.GetItem(ctx, unknown, 0); err != nil || item != nil {
		t.Fatalf("GetItem = %+v, %v", item, err)
	}
	if ok, err := c.AddItem(ctx, unknown, &CartItem{Description: "Pen", Quantity: 1}); err != nil || ok {
		t.Fatalf("AddItem = %v, %v", ok, err)
	}
}

func TestItemOperations(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t)
	c, _ := New("test", testKey, srv.URL)

	id, err := c.Create(ctx, sampleCart())
	if err != nil {
		t.Fatal(err)
	}

	ok, err := c.AddItem(ctx, id, &CartItem{Description: "Book", Quantity: 1, UnitPrice: 10})
	if err != nil || !ok {
		t.Fatalf("AddItem = %v, %v", ok, err)
	}

	item, err := c.GetItem(ctx, id, 1)
	if err != nil || item == nil || item.Description != "Book" {
		t.Fatalf("GetItem = %+v, %v", item, err)
	}

	_, err = c.AddItem(ctx, id, &CartItem{Description: "Book", Quantity: 3, UnitPrice: 10})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("duplicate AddItem error = %v", err)
	}
	if !errors.Is(err, ErrApplication) {
		t.Fatal("APIError must match ErrApplication")
	}

	ok, err = c.UpdateItem(ctx, id, &CartItem{Description: "Book", Quantity: 5, UnitPrice: 10})
	if err != nil || !ok {
		t.Fatalf("UpdateItem = %v, %v", ok, err)
	}
	if ok, _ := c.UpdateItem(ctx, id, &CartItem{Description: "Mug", Quantity: 1, UnitPrice: 4}); ok {
		t.Fatal("UpdateItem on unknown line should report false")
	}

	ok, err = c.DeleteItem(ctx, id, 0)
	if err != nil || !ok {
		t.Fatalf("DeleteItem = %v, %v", ok, err)
	}
	item, _ = c.GetItem(ctx, id, 0)
	if item == nil || item.Description != "Book" || item.Quantity != 5 {
		t.Fatalf("remaining item = %+v", item)
	}
}

func TestArgumentErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := New("test", testKey, DefaultHost)

	if _, err := c.GetCart(ctx, uuid.Nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("GetCart(Nil): %v", err)
	}
	if _, err := c.Create(ctx, nil); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("Create(nil): %v", err)
	}
	if _, err := c.Update(ctx, uuid.New(), nil); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("Update(nil): %v", err)
	}
	if _, err := c.Delete(ctx, uuid.Nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Delete(Nil): %v", err)
	}
	if _, err := c.DeleteItem(ctx, uuid.New(), -1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("DeleteItem(-1): %v", err)
	}
}

func TestApplicationErrors(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t)

	c, _ := New("test", "wrong-key", srv.URL)
	_, err := c.GetCart(ctx, uuid.New())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthorized error = %v", err)
	}
	if apiErr.Body == "" {
		t.Fatal("APIError should carry the response body")
	}

	// Serveur injoignable : erreur de transport
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	c, _ = New("test", testKey, closed.URL)
	_, err = c.GetCart(ctx, uuid.New())
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 0 || !errors.Is(err, ErrApplication) {
		t.Fatalf("transport error = %v", err)
	}
}

func TestClientCredentials(t *testing.T) {
	ctx := context.Background()
	srv := newTestAPI(t)

	c, err := NewWithClientCredentials(ctx, "shop-app", srv.URL, "shop", "shop-secret")
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.Create(ctx, sampleCart())
	if err != nil {
		t.Fatal(err)
	}
	if cart, err := c.GetCart(ctx, id); err != nil || cart == nil {
		t.Fatalf("GetCart = %+v, %v", cart, err)
	}

	bad, err := NewWithClientCredentials(ctx, "shop-app", srv.URL, "shop", "wrong")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bad.GetCart(ctx, id); !errors.Is(err, ErrApplication) {
		t.Fatalf("bad credentials error = %v", err)
	}

	if _, err := NewWithClientCredentials(ctx, "shop-app", srv.URL, "", "x"); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("missing client id: %v", err)
	}
}

func TestWithHTTPClient(t *testing.T) {
	srv := newTestAPI(t)
	custom := &http.Client{Timeout: time.Second}

	c, err := New("test", testKey, srv.URL, WithHTTPClient(custom))
	if err != nil {
		t.Fatal(err)
	}
	if c.http != custom {
		t.Fatal("custom http client not used")
	}
}

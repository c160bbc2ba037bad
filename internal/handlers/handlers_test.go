package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chktr_back_end/internal/cache"
	"chktr_back_end/internal/models"
	"chktr_back_end/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("dial tcp: connection refused")
}
func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("dial tcp: connection refused")
}
func (failingCache) Delete(context.Context, string) error {
	return errors.New("dial tcp: connection refused")
}
func (failingCache) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func newRouter(store cache.Cache) *gin.Engine {
	carts := services.NewCartService(store, 0, nil)
	ch := NewCartHandler(carts)
	ih := NewCartItemHandler(carts)

	r := gin.New()
	r.GET("/api/cart/:key", ch.Get)
	r.POST("/api/cart", ch.Create)
	r.PUT("/api/cart/:key", ch.Update)
	r.DELETE("/api/cart/:key", ch.Delete)
	r.GET("/api/cartitem/:key/:index", ih.Get)
	r.POST("/api/cartitem/:key", ih.Add)
	r.PUT("/api/cartitem/:key", ih.Replace)
	r.DELETE("/api/cartitem/:key/:index", ih.Delete)
	r.GET("/health", NewHealthHandler(store).Check)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const annCart = `{"firstname":"Ann","lastname":"Lee","items":[{"description":"Pen","quantity":2,"unitPrice":1.5}]}`

func createCart(t *testing.T, r http.Handler, body string) string {
	t.Helper()
	w := send(r, http.MethodPost, "/api/cart", body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/cart = %d %s", w.Code, w.Body.String())
	}
	var key string
	if err := json.Unmarshal(w.Body.Bytes(), &key); err != nil {
		t.Fatalf("body %q is not a JSON string: %v", w.Body.String(), err)
	}
	if _, err := uuid.Parse(key); err != nil {
		t.Fatalf("key %q is not a uuid", key)
	}
	return key
}

func TestCreateThenGet(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())
	key := createCart(t, r, annCart)

	w := send(r, http.MethodGet, "/api/cart/"+key, "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET = %d", w.Code)
	}
	var cart models.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &cart); err != nil {
		t.Fatal(err)
	}
	if cart.Firstname != "Ann" || cart.Lastname != "Lee" || len(cart.Items) != 1 || cart.Total() != 3.0 {
		t.Fatalf("cart = %+v", cart)
	}
	if !strings.Contains(w.Body.String(), `"total":3`) {
		t.Fatalf("total missing from %s", w.Body.String())
	}
}

func TestGetCartNotFound(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())

	if w := send(r, http.MethodGet, "/api/cart/"+uuid.NewString(), ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown key = %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/api/cart/not-a-uuid", ""); w.Code != http.StatusNotFound {
		t.Fatalf("malformed key = %d", w.Code)
	}
}

func TestNilKeyIsBadRequest(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		if w := send(r, method, "/api/cart/"+uuid.Nil.String(), ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s nil key = %d", method, w.Code)
		}
	}
}

func TestCreateBadBody(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())

	w := send(r, http.MethodPost, "/api/cart", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing body = %d", w.Code)
	}
	var me models.ModelError
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || len(me.Detail) != 1 || me.Detail[0] != "Missing Body" {
		t.Fatalf("body = %s", w.Body.String())
	}

	w = send(r, http.MethodPost, "/api/cart", `{"firstname":"An","lastname":"Lee"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid cart = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || len(me.Detail) == 0 {
		t.Fatalf("body = %s", w.Body.String())
	}

	if w := send(r, http.MethodPost, "/api/cart", `{"firstname":`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed json = %d", w.Code)
	}
}

func TestOverflowingCartIsBadRequest(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())

	w := send(r, http.MethodPost, "/api/cart", `{"firstname":"Ann","lastname":"Lee","items":[{"description":"Pen","quantity":2,"unitPrice":1e308}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST overflowing cart = %d %s", w.Code, w.Body.String())
	}
	var me models.ModelError
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || len(me.Detail) != 1 || !strings.Contains(me.Detail[0], "Subtotal") {
		t.Fatalf("body = %s", w.Body.String())
	}

	key := createCart(t, r, `{"firstname":"Ann","lastname":"Lee","items":[{"description":"Pen","quantity":1,"unitPrice":1e308}]}`)
	w = send(r, http.MethodPost, "/api/cartitem/"+key, `{"description":"Ink","quantity":1,"unitPrice":1e308}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("POST item overflowing total = %d %s", w.Code, w.Body.String())
	}
	if w := send(r, http.MethodGet, "/api/cartitem/"+key+"/0", ""); w.Code != http.StatusOK {
		t.Fatalf("cart lost after rejected item: %d", w.Code)
	}
}

// Les descriptions en double ne sont refusées qu'à l'ajout d'une ligne
func TestDuplicateDescriptionsInWholeCart(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())
	dup := `{"firstname":"Ann","lastname":"Lee","items":[{"description":"Pen","quantity":1,"unitPrice":1},{"description":"Pen","quantity":2,"unitPrice":1}]}`

	key := createCart(t, r, dup)
	if w := send(r, http.MethodPut, "/api/cart/"+key, dup); w.Code != http.StatusOK {
		t.Fatalf("PUT with duplicates = %d %s", w.Code, w.Body.String())
	}

	w := send(r, http.MethodGet, "/api/cart/"+key, "")
	var cart models.Cart
	if err := json.Unmarshal(w.Body.Bytes(), &cart); err != nil || len(cart.Items) != 2 {
		t.Fatalf("cart = %s", w.Body.String())
	}

	if w := send(r, http.MethodPost, "/api/cartitem/"+key, `{"description":"Pen","quantity":3,"unitPrice":1}`); w.Code != http.StatusInternalServerError {
		t.Fatalf("POST duplicate item = %d", w.Code)
	}
}

func TestUpdateCart(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())

	unknown := uuid.NewString()
	if w := send(r, http.MethodPut, "/api/cart/"+unknown, annCart); w.Code != http.StatusNotFound {
		t.Fatalf("PUT unknown = %d", w.Code)
	}
	if w := send(r, http.MethodGet, "/api/cart/"+unknown, ""); w.Code != http.StatusNotFound {
		t.Fatal("PUT on unknown key must not create the cart")
	}

	key := createCart(t, r, annCart)
	if w := send(r, http.MethodPut, "/api/cart/"+key, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("PUT without body = %d", w.Code)
	}

	w := send(r, http.MethodPut, "/api/cart/"+key, `{"firstname":"Bob","lastname":"Lee"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodGet, "/api/cart/"+key, "")
	var cart models.Cart
	_ = json.Unmarshal(w.Body.Bytes(), &cart)
	if cart.Firstname != "Bob" || len(cart.Items) != 0 {
		t.Fatalf("cart after PUT = %+v", cart)
	}
}

func TestDeleteCartTwice(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())
	key := createCart(t, r, annCart)

	for i := 0; i < 2; i++ {
		if w := send(r, http.MethodDelete, "/api/cart/"+key, ""); w.Code != http.StatusOK {
			t.Fatalf("DELETE #%d = %d", i+1, w.Code)
		}
	}
	if w := send(r, http.MethodGet, "/api/cart/"+key, ""); w.Code != http.StatusNotFound {
		t.Fatalf("GET after DELETE = %d", w.Code)
	}
}

func TestBackendFailureIs500(t *testing.T) {
	r := newRouter(failingCache{})
	key := uuid.NewString()

	cases := []struct{ method, path, body string }{
		{http.MethodGet, "/api/cart/" + key, ""},
		{http.MethodPost, "/api/cart", annCart},
		{http.MethodPut, "/api/cart/" + key, annCart},
		{http.MethodDelete, "/api/cart/" + key, ""},
		{http.MethodGet, "/api/cartitem/" + key + "/0", ""},
	}
	for _, tc := range cases {
		w := send(r, tc.method, tc.path, tc.body)
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s = %d", tc.method, tc.path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "connection refused") {
			t.Fatalf("%s %s body = %q", tc.method, tc.path, w.Body.String())
		}
	}
}

func TestCartItemLifecycle(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())
	key := createCart(t, r, annCart)

	w := send(r, http.MethodPost, "/api/cartitem/"+key, `{"description":"Book","quantity":1,"unitPrice":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("POST item = %d %s", w.Code, w.Body.String())
	}

	w = send(r, http.MethodGet, "/api/cartitem/"+key+"/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET item = %d", w.Code)
	}
	var item models.CartItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil || item.Description != "Book" {
		t.Fatalf("item = %+v, %v", item, err)
	}

	w = send(r, http.MethodPost, "/api/cartitem/"+key, `{"description":"Pen","quantity":9,"unitPrice":1}`)
	if w.Code != http.StatusInternalServerError || w.Body.String() != "Can't insert a duplicated Item." {
		t.Fatalf("duplicate = %d %q", w.Code, w.Body.String())
	}

	w = send(r, http.MethodPut, "/api/cartitem/"+key, `{"description":"Pen","quantity":4,"unitPrice":1.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT item = %d", w.Code)
	}
	w = send(r, http.MethodGet, "/api/cartitem/"+key+"/0", "")
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if item.Description != "Pen" || item.Quantity != 4 {
		t.Fatalf("replaced item = %+v", item)
	}

	w = send(r, http.MethodPut, "/api/cartitem/"+key, `{"description":"Mug","quantity":1,"unitPrice":4}`)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Cart do not have this Item.") {
		t.Fatalf("PUT unknown item = %d %s", w.Code, w.Body.String())
	}

	if w := send(r, http.MethodDelete, "/api/cartitem/"+key+"/0", ""); w.Code != http.StatusOK {
		t.Fatalf("DELETE item = %d", w.Code)
	}
	w = send(r, http.MethodGet, "/api/cartitem/"+key+"/0", "")
	_ = json.Unmarshal(w.Body.Bytes(), &item)
	if item.Description != "Book" {
		t.Fatalf("remaining item = %+v", item)
	}
	if w := send(r, http.MethodDelete, "/api/cartitem/"+key+"/5", ""); w.Code != http.StatusNotFound {
		t.Fatalf("DELETE out of range = %d", w.Code)
	}
}

func TestCartItemNotFound(t *testing.T) {
	r := newRouter(cache.NewMemoryCache())
	unknown := uuid.NewString()

	w := send(r, http.MethodGet, "/api/cartitem/"+unknown+"/0", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Cart Not Found") {
		t.Fatalf("unknown cart = %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodPost, "/api/cartitem/"+unknown, `{"description":"Pen","quantity":1,"unitPrice":1}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST on unknown cart = %d", w.Code)
	}

	key := createCart(t, r, `{"firstname":"Ann","lastname":"Lee"}`)
	w = send(r, http.MethodPut, "/api/cartitem/"+key, `{"description":"Pen","quantity":1,"unitPrice":1}`)
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "Cart do not have any Items.") {
		t.Fatalf("PUT on empty cart = %d %s", w.Code, w.Body.String())
	}

	for _, idx := range []string{"0", "-1", "10000", "abc"} {
		if w := send(r, http.MethodGet, "/api/cartitem/"+key+"/"+idx, ""); w.Code != http.StatusNotFound {
			t.Fatalf("index %s = %d", idx, w.Code)
		}
	}

	if w := send(r, http.MethodPost, "/api/cartitem/"+key, ""); w.Code != http.StatusBadRequest {
		t.Fatalf("POST item without body = %d", w.Code)
	}
	if w := send(r, http.MethodPost, "/api/cartitem/"+key, `{"description":"P"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("POST invalid item = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	if w := send(newRouter(cache.NewMemoryCache()), http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("healthy = %d", w.Code)
	}
	if w := send(newRouter(failingCache{}), http.MethodGet, "/health", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy = %d", w.Code)
	}
}

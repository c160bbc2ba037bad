// Package client appelle l'API panier chktr.
//
// Une réponse 404 est traitée comme un résultat vide (nil ou false) ; toute
// autre réponse en erreur est renvoyée sous forme de *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"chktr_back_end/internal/models"
)

// DefaultHost est l'adresse locale par défaut du serveur.
const DefaultHost = "http://localhost:5000"

// TokenPath est l'endpoint client_credentials du serveur.
const TokenPath = "/connect/token"

type (
	Cart     = models.Cart
	CartItem = models.CartItem
)

var (
	ErrMissingArgument = errors.New("chktr: missing argument")
	ErrInvalidHost     = errors.New("chktr: invalid host")
	ErrInvalidArgument = errors.New("chktr: invalid argument")
	// ErrApplication est satisfaite par toute *APIError.
	ErrApplication = errors.New("chktr: application error")
)

// APIError décrit une réponse inattendue du serveur ou un échec de transport (StatusCode 0).
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("chktr: request failed: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("chktr: %s", e.Status)
	}
	return fmt.Sprintf("chktr: %s: %s", e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool { return target == ErrApplication }

type Client struct {
	appName string
	apiKey  string
	baseURL *url.URL
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient remplace le client HTTP (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New crée un client authentifié par clé d'API (header Authorization brut).
func New(appName, apiKey, host string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: apiKey", ErrMissingArgument)
	}
	c, err := newClient(appName, host, opts)
	if err != nil {
		return nil, err
	}
	c.apiKey = apiKey
	return c, nil
}

func NewDefault(appName, apiKey string, opts ...Option) (*Client, error) {
	return New(appName, apiKey, DefaultHost, opts...)
}

// NewWithClientCredentials obtient des jetons Bearer auprès de /connect/token et les renouvelle à l'expiration.
func NewWithClientCredentials(ctx context.Context, appName, host, clientID, clientSecret string, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: clientID", ErrMissingArgument)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("%w: clientSecret", ErrMissingArgument)
	}
	c, err := newClient(appName, host, opts)
	if err != nil {
		return nil, err
	}

	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.baseURL.JoinPath(TokenPath).String(),
		Scopes:       []string{"api"},
	}
	c.http = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	return c, nil
}

func newClient(appName, host string, opts []Option) (*Client, error) {
	if appName == "" {
		return nil, fmt.Errorf("%w: appName", ErrMissingArgument)
	}
	if host == "" {
		return nil, fmt.Errorf("%w: host", ErrMissingArgument)
	}
	u, err := url.Parse(host)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: '%s' is not a valid url", ErrInvalidHost, host)
	}

	c := &Client{
		appName: appName,
		baseURL: u,
		http:    http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) AppName() string { return c.appName }

func checkID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: empty cart id", ErrInvalidArgument)
	}
	return nil
}

// --- Panier ---

// GetCart renvoie (nil, nil) si le panier n'existe pas.
func (c *Client) GetCart(ctx context.Context, id uuid.UUID) (*Cart, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var cart Cart
	found, err := c.do(ctx, http.MethodGet, nil, &cart, "api", "cart", id.String())
	if err != nil || !found {
		return nil, err
	}
	return &cart, nil
}

// Create enregistre un panier et renvoie sa clé.
func (c *Client) Create(ctx context.Context, cart *Cart) (uuid.UUID, error) {
	if cart == nil {
		return uuid.Nil, fmt.Errorf("%w: cart", ErrMissingArgument)
	}
	var key string
	found, err := c.do(ctx, http.MethodPost, cart, &key, "api", "cart")
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, &APIError{StatusCode: http.StatusNotFound, Status: "404 Not Found"}
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return uuid.Nil, &APIError{StatusCode: http.StatusOK, Status: "200 OK", Body: key, Err: err}
	}
	return id, nil
}

// Update renvoie false si le panier n'existe pas.
func (c *Client) Update(ctx context.Context, id uuid.UUID, cart *Cart) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	if cart == nil {
		return false, fmt.Errorf("%w: cart", ErrMissingArgument)
	}
	return c.do(ctx, http.MethodPut, cart, nil, "api", "cart", id.String())
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	return c.do(ctx, http.MethodDelete, nil, nil, "api", "cart", id.String())
}

// --- Lignes ---

// GetItem renvoie (nil, nil) si le panier ou l'index n'existe pas.
func (c *Client) GetItem(ctx context.Context, id uuid.UUID, index int) (*CartItem, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, fmt.Errorf("%w: negative index", ErrInvalidArgument)
	}
	var item CartItem
	found, err := c.do(ctx, http.MethodGet, nil, &item, "api", "cartitem", id.String(), strconv.Itoa(index))
	if err != nil || !found {
		return nil, err
	}
	return &item, nil
}

// AddItem renvoie false si le panier n'existe pas. Une description en double donne une *APIError.
func (c *Client) AddItem(ctx context.Context, id uuid.UUID, item *CartItem) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	if item == nil {
		return false, fmt.Errorf("%w: item", ErrMissingArgument)
	}
	return c.do(ctx, http.MethodPost, item, nil, "api", "cartitem", id.String())
}

// UpdateItem remplace la ligne de même description ; false si le panier ou la ligne manque.
func (c *Client) UpdateItem(ctx context.Context, id uuid.UUID, item *CartItem) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	if item == nil {
		return false, fmt.Errorf("%w: item", ErrMissingArgument)
	}
	return c.do(ctx, http.MethodPut, item, nil, "api", "cartitem", id.String())
}

func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID, index int) (bool, error) {
	if err := checkID(id); err != nil {
		return false, err
	}
	if index < 0 {
		return false, fmt.Errorf("%w: negative index", ErrInvalidArgument)
	}
	return c.do(ctx, http.MethodDelete, nil, nil, "api", "cartitem", id.String(), strconv.Itoa(index))
}

// do envoie la requête ; found vaut false sur 404.
func (c *Client) do(ctx context.Context, method string, in, out any, path ...string) (bool, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return false, fmt.Errorf("chktr: encode body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path...).String(), body)
	if err != nil {
		return false, &APIError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, &APIError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(data)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return false, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(data), Err: err}
		}
	}
	return true, nil
}

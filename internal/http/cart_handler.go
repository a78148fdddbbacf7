package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eshop/cart-service/internal/cart"
	"github.com/eshop/cart-service/internal/catalog"
	"github.com/eshop/cart-service/internal/session"
)

// ProductCatalog is what the cart surface needs from the catalog layer.
type ProductCatalog interface {
	cart.ProductFinder
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
}

type CartHandler struct {
	catalog ProductCatalog
}

func NewCartHandler(catalog ProductCatalog) *CartHandler {
	return &CartHandler{catalog: catalog}
}

type AddItemRequestDTO struct {
	ProductID        int64 `json:"product_id"`
	Quantity         int   `json:"quantity"`
	OverrideQuantity bool  `json:"override_quantity"`
}

type ProductDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
}

type LineItemDTO struct {
	Product    ProductDTO `json:"product"`
	Quantity   int        `json:"quantity"`
	Price      string     `json:"price"`
	TotalPrice string     `json:"total_price"`
}

type CartResponseDTO struct {
	Items      []LineItemDTO `json:"items"`
	TotalPrice string        `json:"total_price"`
	ItemCount  int           `json:"item_count"`
}

func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.requestCart(w, r)
	if !ok {
		return
	}

	resp, err := h.buildCartResponse(r.Context(), c)
	if err != nil {
		log.Printf("build cart response error: %v", err)
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not resolve cart contents")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.requestCart(w, r)
	if !ok {
		return
	}

	// Parse request body
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Validate request
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	// The add-time price snapshot comes from the current catalog record
	p, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		log.Printf("catalog get product error: %v", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "could not look up product")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}

	if err := c.Add(p, req.Quantity, req.OverrideQuantity); err != nil {
		log.Printf("cart add error: %v", err)
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not update cart")
		return
	}

	resp, err := h.buildCartResponse(r.Context(), c)
	if err != nil {
		log.Printf("build cart response error: %v", err)
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not resolve cart contents")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, ok := h.requestCart(w, r)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	// Absent ids are a no-op, matching the cart contract
	if err := c.Remove(productID); err != nil {
		log.Printf("cart remove error: %v", err)
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not update cart")
		return
	}

	resp, err := h.buildCartResponse(r.Context(), c)
	if err != nil {
		log.Printf("build cart response error: %v", err)
		respondError(w, http.StatusInternalServerError, "cart_unavailable", "could not resolve cart contents")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	c, ok := h.requestCart(w, r)
	if !ok {
		return
	}

	c.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// requestCart builds the per-request cart handle from the session installed
// by the middleware.
func (h *CartHandler) requestCart(w http.ResponseWriter, r *http.Request) (*cart.Cart, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "no_session", "session middleware not installed")
		return nil, false
	}

	c, err := cart.New(sess)
	if err != nil {
		log.Printf("cart decode error: %v", err)
		respondError(w, http.StatusInternalServerError, "corrupt_cart", "stored cart could not be decoded")
		return nil, false
	}

	return c, true
}

func (h *CartHandler) buildCartResponse(ctx context.Context, c *cart.Cart) (CartResponseDTO, error) {
	lines, err := c.Items(ctx, h.catalog)
	if err != nil {
		return CartResponseDTO{}, err
	}

	total, err := c.TotalPrice()
	if err != nil {
		return CartResponseDTO{}, err
	}

	items := make([]LineItemDTO, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineItemDTO{
			Product: ProductDTO{
				ID:          line.Product.ID,
				Name:        line.Product.Name,
				Description: line.Product.Description,
				Price:       line.Product.Price.String(),
				ImageURL:    line.Product.ImageURL,
			},
			Quantity:   line.Quantity,
			Price:      line.Price.String(),
			TotalPrice: line.TotalPrice.String(),
		})
	}

	return CartResponseDTO{
		Items:      items,
		TotalPrice: total.String(),
		ItemCount:  c.Len(),
	}, nil
}

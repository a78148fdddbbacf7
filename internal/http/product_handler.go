package http

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eshop/cart-service/internal/catalog"
)

// CatalogBrowser is what the read-only product surface needs.
type CatalogBrowser interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	GetAllProducts(ctx context.Context) ([]*catalog.Product, error)
}

type ProductHandler struct {
	catalog CatalogBrowser
}

func NewProductHandler(catalog CatalogBrowser) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{productID}", h.GetProduct)
	})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.GetAllProducts(r.Context())
	if err != nil {
		log.Printf("catalog list products error: %v", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "could not list products")
		return
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}

	respondJSON(w, http.StatusOK, out)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be a positive integer")
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		log.Printf("catalog get product error: %v", err)
		respondError(w, http.StatusInternalServerError, "catalog_unavailable", "could not look up product")
		return
	}
	if p == nil {
		respondError(w, http.StatusNotFound, "product_not_found", "no such product")
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(p))
}

func toProductDTO(p *catalog.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		ImageURL:    p.ImageURL,
	}
}

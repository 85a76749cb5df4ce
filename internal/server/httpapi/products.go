package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/invkeeper/internal/server/models"
	"github.com/dmitrijs2005/invkeeper/internal/server/services"
)

func (h *handler) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := decodeJSON(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p.ID = 0

	created, err := h.products.Create(r.Context(), &p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "product created", "product_id", created.ID, "by", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, created)
}

func (h *handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	var p models.Product
	if err := decodeJSON(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p.ID = id

	updated, err := h.products.Update(r.Context(), &p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "invalid id")
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info(r.Context(), "product deleted", "product_id", id, "by", sessionFrom(r.Context()).Username)
	writeJSON(w, http.StatusOK, map[string]string{"mensaje": "Producto eliminado"})
}

func (h *handler) productsByCategory(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.SearchByCategory(r.Context(), mux.Vars(r)["categoria"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) productsByBrand(w http.ResponseWriter, r *http.Request) {
	list, err := h.products.SearchByBrand(r.Context(), mux.Vars(r)["marca"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// lowStock serves GET /productos/stock-bajo?limite=N.
func (h *handler) lowStock(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultLowStockLimit
	if raw := r.URL.Query().Get("limite"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "invalid limite")
			return
		}
		limit = n
	}

	list, err := h.products.LowStock(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

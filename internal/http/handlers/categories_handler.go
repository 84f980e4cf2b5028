package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
)

type CategoryHandler struct {
	Repo postgres.CategoryRepo
}

func NewCategoryHandler(repo postgres.CategoryRepo) *CategoryHandler {
	return &CategoryHandler{Repo: repo}
}

func (h *CategoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Patch("/{id}", h.rename)
	r.Delete("/{id}", h.delete)
	return r
}

func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.CategoryReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	cat, err := h.Repo.Create(r.Context(), in.Name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, cat)
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Repo.List(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	if cats == nil {
		cats = []domain.VehicleCategory{}
	}
	response.JSON(w, http.StatusOK, cats)
}

func (h *CategoryHandler) rename(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return
	}

	var in domain.CategoryReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	cat, err := h.Repo.Rename(r.Context(), id, in.Name)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, cat)
}

func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid id")
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
)

type ParkingLotHandler struct {
	Repo postgres.ParkingLotRepo
}

func NewParkingLotHandler(repo postgres.ParkingLotRepo) *ParkingLotHandler {
	return &ParkingLotHandler{Repo: repo}
}

// Routes is the public, read-only surface: the lot listing the booking
// pages render.
func (h *ParkingLotHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	return r
}

// AdminRoutes is the inventory CRUD surface.
func (h *ParkingLotHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	return r
}

func lotID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *ParkingLotHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.ParkingLotCreateReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	lot, err := h.Repo.Create(r.Context(), &in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, lot.DTO())
}

func (h *ParkingLotHandler) list(w http.ResponseWriter, r *http.Request) {
	lots, err := h.Repo.List(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	out := make([]domain.ParkingLotDTO, 0, len(lots))
	for i := range lots {
		out = append(out, lots[i].DTO())
	}
	response.JSON(w, http.StatusOK, out)
}

func (h *ParkingLotHandler) getByID(w http.ResponseWriter, r *http.Request) {
	id, ok := lotID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	lot, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, lot.DTO())
}

func (h *ParkingLotHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := lotID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	var patch domain.ParkingLotPatch
	if err := decodeValid(r, &patch); err != nil {
		response.FromError(w, err)
		return
	}

	lot, err := h.Repo.Update(r.Context(), id, patch)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, lot.DTO())
}

func (h *ParkingLotHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := lotID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

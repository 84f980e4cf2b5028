package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/service"
)

type VehicleHandler struct {
	Bookings service.BookingService
}

func NewVehicleHandler(bookings service.BookingService) *VehicleHandler {
	return &VehicleHandler{Bookings: bookings}
}

func (h *VehicleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listByStatus)
	r.Get("/history", h.history)
	r.Post("/{id}/check-in", h.checkIn)
	r.Post("/{id}/check-out", h.checkOut)
	r.Post("/{id}/settle", h.settle)
	return r
}

func vehicleID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *VehicleHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	id, ok := vehicleID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	if err := h.Bookings.CheckIn(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	id, ok := vehicleID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	if err := h.Bookings.CheckOut(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) settle(w http.ResponseWriter, r *http.Request) {
	id, ok := vehicleID(r)
	if !ok {
		response.BadRequest(w, "invalid id")
		return
	}

	var in domain.SettleReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.Bookings.Settle(r.Context(), id, in.Remark); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) listByStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	status, ok := domain.ParseVehicleStatus(raw)
	if !ok {
		response.BadRequest(w, "invalid status (allowed: upcoming, in, out, settled)")
		return
	}
	limit, offset := pageParams(r)

	vs, err := h.Bookings.VehiclesByStatus(r.Context(), status, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if vs == nil {
		vs = []domain.Vehicle{}
	}
	response.JSON(w, http.StatusOK, vs)
}

// history lists settled vehicles, the admin's archived view.
func (h *VehicleHandler) history(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	vs, err := h.Bookings.VehiclesByStatus(r.Context(), domain.VehicleSettled, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if vs == nil {
		vs = []domain.Vehicle{}
	}
	response.JSON(w, http.StatusOK, vs)
}

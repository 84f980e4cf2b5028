package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/middleware"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/service"
)

type BookingHandler struct {
	Bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

// Routes is the authenticated user surface.
func (h *BookingHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.listForUser)
	return r
}

// AdminRoutes covers the walk-in flow and the admin booking views.
func (h *BookingHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.create)
	r.Get("/", h.listForAdmin)
	return r
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	var in domain.BookingCreateReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	booking, err := h.Bookings.Create(r.Context(), &in, true)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, booking)
}

func scopeParam(r *http.Request, w http.ResponseWriter) (*domain.Phase, bool) {
	raw := r.URL.Query().Get("scope")
	if raw == "" {
		return nil, true
	}
	phase, ok := domain.ParsePhase(raw)
	if !ok {
		response.BadRequest(w, "invalid scope (allowed: upcoming, ongoing, past)")
		return nil, false
	}
	return &phase, true
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

func (h *BookingHandler) listForUser(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing credentials")
		return
	}

	scope, ok := scopeParam(r, w)
	if !ok {
		return
	}
	limit, offset := pageParams(r)

	ds, err := h.Bookings.ListForUser(r.Context(), claims.Sub, scope, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if ds == nil {
		ds = []domain.BookingDetail{}
	}
	response.JSON(w, http.StatusOK, ds)
}

func (h *BookingHandler) listForAdmin(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeParam(r, w)
	if !ok {
		return
	}

	var f domain.BookingFilter
	f.Limit, f.Offset = pageParams(r)

	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid user_id")
			return
		}
		f.UserID = &id
	}
	if raw := r.URL.Query().Get("parking_lot_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "invalid parking_lot_id")
			return
		}
		f.ParkingLotID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseVehicleStatus(raw)
		if !ok {
			response.BadRequest(w, "invalid status (allowed: upcoming, in, out, settled)")
			return
		}
		f.Status = &st
	}

	ds, err := h.Bookings.ListForAdmin(r.Context(), f, scope)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if ds == nil {
		ds = []domain.BookingDetail{}
	}
	response.JSON(w, http.StatusOK, ds)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/middleware"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/repo/postgres"
	"github.com/eazyparking/parking-bookings/internal/service"
)

// DashboardHandler serves the read-only projections the admin dashboard
// and the user report export render client-side.
type DashboardHandler struct {
	Stats    postgres.StatsRepo
	Users    postgres.UserRepo
	Bookings service.BookingService
}

func NewDashboardHandler(stats postgres.StatsRepo, users postgres.UserRepo, bookings service.BookingService) *DashboardHandler {
	return &DashboardHandler{Stats: stats, Users: users, Bookings: bookings}
}

func (h *DashboardHandler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/stats", h.stats)
	r.Get("/occupancy", h.occupancy)
	r.Get("/users", h.registeredUsers)
	return r
}

func (h *DashboardHandler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Stats.Totals(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, s)
}

func (h *DashboardHandler) occupancy(w http.ResponseWriter, r *http.Request) {
	os, err := h.Stats.Occupancy(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	if os == nil {
		os = []domain.LotOccupancy{}
	}
	response.JSON(w, http.StatusOK, os)
}

func (h *DashboardHandler) registeredUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	us, err := h.Users.List(r.Context(), domain.RoleUser, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	out := make([]domain.UserDTO, 0, len(us))
	for i := range us {
		out = append(out, us[i].DTO())
	}
	response.JSON(w, http.StatusOK, out)
}

// UserReport returns the caller's bookings with lot and vehicle fields,
// ready for client-side CSV or PDF export.
func (h *DashboardHandler) UserReport(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing credentials")
		return
	}

	ds, err := h.Bookings.ListForUser(r.Context(), claims.Sub, nil, 100, 0)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if ds == nil {
		ds = []domain.BookingDetail{}
	}
	response.JSON(w, http.StatusOK, ds)
}

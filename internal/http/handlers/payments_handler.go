package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eazyparking/parking-bookings/internal/domain"
	"github.com/eazyparking/parking-bookings/internal/http/middleware"
	"github.com/eazyparking/parking-bookings/internal/http/response"
	"github.com/eazyparking/parking-bookings/internal/service"
)

type PaymentHandler struct {
	Payments service.PaymentService
}

func NewPaymentHandler(payments service.PaymentService) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

// Routes is the authenticated user payment surface.
func (h *PaymentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/checkout-session", h.createCheckoutSession)
	r.Post("/verify", h.verify)
	return r
}

func (h *PaymentHandler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		response.Unauthorized(w, "missing credentials")
		return
	}

	var in domain.CheckoutReq
	if err := decodeValid(r, &in); err != nil {
		response.FromError(w, err)
		return
	}

	session, err := h.Payments.InitiateCheckout(r.Context(), claims.Sub, &in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{
		"session_id": session.ID,
		"url":        session.URL,
	})
}

func (h *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Token == "" {
		response.BadRequest(w, "token is required")
		return
	}

	result, err := h.Payments.Confirm(r.Context(), in.Token)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Webhook is mounted outside the authenticated tree; Stripe authenticates
// itself with the signature header.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		response.BadRequest(w, "cannot read payload")
		return
	}

	if err := h.Payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		response.FromError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

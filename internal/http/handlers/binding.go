package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/eazyparking/parking-bookings/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeValid is the single validation boundary per endpoint: JSON decode
// plus struct-tag validation, both reported as ErrInvalidInput.
func decodeValid(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed json", domain.ErrInvalidInput)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

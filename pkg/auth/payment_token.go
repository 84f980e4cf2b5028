package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Payment tokens bridge checkout-session creation and confirmation. The
// token is the only record of the pending booking until the provider
// confirms, so its shape is a compatibility surface: changing it breaks
// in-flight checkout sessions.
type PaymentClaims struct {
	UserID             int64     `json:"user_id"`
	ParkingLotID       int64     `json:"parking_lot_id"`
	RegistrationNumber string    `json:"registration_number"`
	CategoryID         int64     `json:"category_id"`
	CompanyName        string    `json:"company_name"`
	InTime             time.Time `json:"in_time"`
	jwt.RegisteredClaims
}

var (
	ErrPaymentTokenExpired = errors.New("payment token expired")
	ErrPaymentTokenInvalid = errors.New("payment token invalid")
)

const maxPaymentTokenTTL = time.Hour

// NewPaymentToken signs a single-use checkout token. The jti claim is the
// consumption key; TTL is capped at one hour.
func NewPaymentToken(claims PaymentClaims, secret string, ttl time.Duration) (string, string, error) {
	if ttl <= 0 || ttl > maxPaymentTokenTTL {
		ttl = maxPaymentTokenTTL
	}
	now := time.Now()
	jti := uuid.NewString()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Audience:  []string{"eazyparking-payment"},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}
	return signed, jti, nil
}

func ParsePaymentToken(tokenString, secret string) (*PaymentClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &PaymentClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrPaymentTokenExpired
		}
		return nil, ErrPaymentTokenInvalid
	}
	claims, ok := tok.Claims.(*PaymentClaims)
	if !ok || !tok.Valid || claims.ID == "" {
		return nil, ErrPaymentTokenInvalid
	}
	return claims, nil
}

package payments

import "context"

// CheckoutSession is the provider-hosted payment page reference returned
// to the frontend.
type CheckoutSession struct {
	ID  string
	URL string
}

type CreateSessionInput struct {
	ProductName string
	AmountMinor int64 // currency minor units
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// WebhookResult is the decoded provider callback.
type WebhookResult struct {
	SessionID string
	// Token is the signed payment token carried through session metadata.
	Token string
	// Completed is true only for a finished checkout; other event types
	// are acknowledged and ignored.
	Completed bool
}

// Provider abstracts the external payment service so services and tests
// never dial it directly.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, in CreateSessionInput) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*WebhookResult, error)
}

package exchange

import "errors"

// Unified error hierarchy. Adapters wrap these sentinels so callers can
// react to a class of failure without inspecting broker-specific error
// strings.
var (
	// ErrCredentialsAreEmpty is returned when a private call is attempted
	// without the required API credentials
	ErrCredentialsAreEmpty = errors.New("exchange credentials are empty")
	// ErrAuthenticationFailed covers invalid, missing or expired tokens
	ErrAuthenticationFailed = errors.New("exchange authentication failed")
	// ErrPermissionDenied is returned when the account lacks the required
	// API permission or segment activation
	ErrPermissionDenied = errors.New("exchange permission denied")
	// ErrBadRequest is returned for malformed or missing request parameters
	ErrBadRequest = errors.New("exchange rejected malformed request")
	// ErrInvalidOrder is returned when an order is rejected at placement,
	// modification or cancellation
	ErrInvalidOrder = errors.New("exchange rejected invalid order")
	// ErrInsufficientFunds is returned when available margin or holdings
	// cannot cover the order
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrRateLimitExceeded is returned on HTTP 429 responses
	ErrRateLimitExceeded = errors.New("exchange rate limit exceeded")
	// ErrNetwork is returned for transport level failures reported by the
	// exchange
	ErrNetwork = errors.New("exchange network error")
	// ErrExchangeNotAvailable is returned when the exchange reports a server
	// side failure
	ErrExchangeNotAvailable = errors.New("exchange not available")
	// ErrExchangeError is the generic catch-all for reported errors which do
	// not map to a more specific class
	ErrExchangeError = errors.New("exchange error")
)

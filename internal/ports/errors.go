package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Signal / Ledger Errors
	ErrInvalidSignal = errors.New("signal payload is missing mandatory fields")
	ErrTradeActive   = errors.New("trade is active and cannot be updated")
	ErrTradeResolved = errors.New("trade is already resolved and cannot be updated")

	// Market Data Provider Errors
	ErrNoData              = errors.New("no bars available for the requested window")
	ErrProviderUnavailable = errors.New("market data provider is unavailable")
	ErrRateLimited         = errors.New("market data provider rate limit exceeded")
	ErrUnknownTicker       = errors.New("ticker not recognized by the provider")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)

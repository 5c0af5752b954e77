package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Identity & authorization errors
	ErrNotSignedIn      = fmt.Errorf("no signed-in user")
	ErrInvalidToken     = fmt.Errorf("malformed identity token")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthExpired      = fmt.Errorf("authorization expired")
	ErrMissingVerifier  = fmt.Errorf("missing PKCE code verifier")
	ErrAuthFailed       = fmt.Errorf("authorization failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and storage errors
	ErrAPIRequest   = fmt.Errorf("API request failed")
	ErrStorageParse = fmt.Errorf("malformed stored value")
	ErrNotFound     = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

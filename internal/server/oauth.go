package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
)

// CallbackClient is the slice of the Spotify service the callback handler
// needs: the PKCE code-for-token exchange.
type CallbackClient interface {
	HandleAuthorizationCallback(ctx context.Context, query url.Values) (bool, error)
}

// CallbackResult contains the outcome of a PKCE authorization flow.
type CallbackResult struct {
	Authenticated bool
	err           error
}

func (r *CallbackResult) Error() error {
	return r.err
}

// CallbackHandler handles the PKCE authorization redirect.
// Implements the [Handler] interface for registration with a [Router].
type CallbackHandler struct {
	client      CallbackClient
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback handler delegating the token
// exchange to the given client.
func NewCallbackHandler(client CallbackClient) *CallbackHandler {
	return &CallbackHandler{
		client:     client,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the authorization redirect.
//
// A request without a code parameter (including provider error redirects)
// produces no side effects. Requests with a code are exchanged exactly once;
// replays are rejected.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if query.Get("code") == "" {
		errParam := query.Get("error")
		if errParam == "" {
			http.Error(w, "Missing authorization code", http.StatusBadRequest)
			return
		}
		err := fmt.Errorf("authorization failed: %s - %s", errParam, query.Get("error_description"))
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	ok, err := h.client.HandleAuthorizationCallback(r.Context(), query)
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(CallbackResult{Authenticated: ok})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

// Send sends the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// The channel receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

const callbackPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>&#10003; Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`

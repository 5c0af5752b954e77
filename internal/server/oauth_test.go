package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// mockCallbackClient records delegated exchanges.
type mockCallbackClient struct {
	handled bool
	err     error
	calls   int
	queries []url.Values
}

func (m *mockCallbackClient) HandleAuthorizationCallback(ctx context.Context, query url.Values) (bool, error) {
	m.calls++
	m.queries = append(m.queries, query)
	return m.handled, m.err
}

func receiveResult(t *testing.T, h *CallbackHandler) CallbackResult {
	t.Helper()
	select {
	case result := <-h.Result():
		return result
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for callback result")
		return CallbackResult{}
	}
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		h := NewCallbackHandler(&mockCallbackClient{})
		routes := h.Routes()
		if len(routes) != 1 || routes[0] != "/callback" {
			t.Errorf("expected single /callback route, got %v", routes)
		}
	})

	t.Run("Missing Code Has No Side Effects", func(t *testing.T) {
		client := &mockCallbackClient{}
		h := NewCallbackHandler(client)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback", nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
		if client.calls != 0 {
			t.Error("expected no exchange without a code")
		}

		select {
		case <-h.Result():
			t.Error("expected no result for codeless request")
		default:
		}
	})

	t.Run("Provider Error Redirect", func(t *testing.T) {
		client := &mockCallbackClient{}
		h := NewCallbackHandler(client)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?error=access_denied&error_description=User+denied", nil))

		if client.calls != 0 {
			t.Error("expected no exchange for a denial")
		}

		result := receiveResult(t, h)
		if result.Error() == nil {
			t.Fatal("expected error result")
		}
		if !strings.Contains(result.Error().Error(), "access_denied") {
			t.Errorf("expected provider error code in result, got %v", result.Error())
		}
	})

	t.Run("Successful Exchange", func(t *testing.T) {
		client := &mockCallbackClient{handled: true}
		h := NewCallbackHandler(client)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=auth_code&state=abc", nil))

		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Authorization Successful") {
			t.Error("expected success page in response body")
		}
		if client.calls != 1 {
			t.Fatalf("expected one exchange, got %d", client.calls)
		}
		if client.queries[0].Get("code") != "auth_code" {
			t.Errorf("expected code forwarded, got %s", client.queries[0].Get("code"))
		}

		result := receiveResult(t, h)
		if !result.Authenticated {
			t.Error("expected authenticated result")
		}
		if result.Error() != nil {
			t.Errorf("expected no error, got %v", result.Error())
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		client := &mockCallbackClient{err: errors.New("exchange blew up")}
		h := NewCallbackHandler(client)

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=bad_code", nil))

		if w.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", w.Code)
		}

		result := receiveResult(t, h)
		if result.Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("Replay Is Rejected", func(t *testing.T) {
		client := &mockCallbackClient{handled: true}
		h := NewCallbackHandler(client)

		first := httptest.NewRecorder()
		h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?code=auth_code", nil))

		second := httptest.NewRecorder()
		h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?code=auth_code", nil))

		if second.Code != http.StatusBadRequest {
			t.Errorf("expected replay rejected with 400, got %d", second.Code)
		}
		if client.calls != 1 {
			t.Errorf("expected one exchange across replays, got %d", client.calls)
		}
	})

	t.Run("Send Only Delivers Once", func(t *testing.T) {
		h := NewCallbackHandler(&mockCallbackClient{})
		h.Send(CallbackResult{Authenticated: true})
		h.Send(CallbackResult{err: errors.New("late")})

		result := receiveResult(t, h)
		if !result.Authenticated {
			t.Error("expected first result to win")
		}

		if _, open := <-h.Result(); open {
			t.Error("expected result channel closed after delivery")
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle Filters Method", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected 200 for GET, got %d", w.Code)
		}

		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for POST, got %d", w.Code)
		}
	})

	t.Run("Handler Registers All Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(NewCallbackHandler(&mockCallbackClient{handled: true}))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/callback?code=auth_code", nil))
		if w.Code != http.StatusOK {
			t.Errorf("expected callback route registered, got %d", w.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mw("first"), mw("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		want := []string{"first", "second", "handler"}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, order)
			}
		}
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/store"
)

// memKV implements [store.KV] on a map for service tests.
type memKV struct {
	values map[store.Key]string
}

func newMemKV() *memKV {
	return &memKV{values: make(map[store.Key]string)}
}

func (m *memKV) Get(key store.Key) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrNotFound, key)
	}
	return value, nil
}

func (m *memKV) Set(key store.Key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memKV) Delete(key store.Key) error {
	delete(m.values, key)
	return nil
}

func testConfig() shared.SpotifyConfig {
	return shared.SpotifyConfig{
		ClientID:    "test_client_id",
		RedirectURI: "http://127.0.0.1:3000/callback",
	}
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Config", func(t *testing.T) {
			srv, err := NewSpotifyService(testConfig(), newMemKV(), "user-1", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
			if srv.IsAuthenticated() {
				t.Error("expected new service to be unauthenticated")
			}
			if srv.State() != Unauthenticated {
				t.Errorf("expected Unauthenticated state, got %s", srv.State())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(shared.SpotifyConfig{}, newMemKV(), "user-1", nil)
			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv, err := NewSpotifyService(shared.SpotifyConfig{ClientID: "test_client_id"}, newMemKV(), "user-1", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv.config.RedirectURL != "http://127.0.0.1:3000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})

		t.Run("Picks Up Stored Token", func(t *testing.T) {
			kv := newMemKV()
			kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}] = "stored_token"

			srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !srv.IsAuthenticated() {
				t.Error("expected stored token to authenticate service")
			}
			if srv.State() != Authenticated {
				t.Errorf("expected Authenticated state, got %s", srv.State())
			}
		})

		t.Run("Service Interface", func(t *testing.T) {
			srv, err := NewSpotifyService(testConfig(), newMemKV(), "user-1", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			var _ Service = srv
		})
	})

	t.Run("BeginAuthorize", func(t *testing.T) {
		kv := newMemKV()
		srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL, err := srv.BeginAuthorize()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if srv.State() != AwaitingCallback {
			t.Errorf("expected AwaitingCallback state, got %s", srv.State())
		}

		verifier := kv.values[store.Key{UserID: "user-1", Field: store.FieldCodeVerifier}]
		if len(verifier) != VerifierLength {
			t.Fatalf("expected persisted %d-character verifier, got %d", VerifierLength, len(verifier))
		}

		parsed, err := url.Parse(authURL)
		if err != nil {
			t.Fatalf("auth URL should parse: %v", err)
		}
		params := parsed.Query()

		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should point at the Spotify accounts domain")
		}
		if params.Get("client_id") != "test_client_id" {
			t.Errorf("expected client_id parameter, got %s", params.Get("client_id"))
		}
		if params.Get("show_dialog") != "true" {
			t.Error("expected show_dialog=true")
		}
		if params.Get("code_challenge_method") != "S256" {
			t.Errorf("expected S256 challenge method, got %s", params.Get("code_challenge_method"))
		}
		if params.Get("code_challenge") != DeriveChallenge(verifier) {
			t.Error("expected challenge derived from the persisted verifier")
		}
		if params.Has("client_secret") {
			t.Error("auth URL must not carry a client secret")
		}
	})

	t.Run("HandleAuthorizationCallback", func(t *testing.T) {
		t.Run("No Code Is A No-op", func(t *testing.T) {
			kv := newMemKV()
			srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			handled, err := srv.HandleAuthorizationCallback(context.Background(), url.Values{})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if handled {
				t.Error("expected callback without code to be ignored")
			}
			if len(kv.values) != 0 {
				t.Error("expected no writes for ignored callback")
			}
		})

		t.Run("Missing Verifier", func(t *testing.T) {
			srv, err := NewSpotifyService(testConfig(), newMemKV(), "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			query := url.Values{"code": {"auth_code"}}
			if _, err := srv.HandleAuthorizationCallback(context.Background(), query); !errors.Is(err, shared.ErrMissingVerifier) {
				t.Errorf("expected ErrMissingVerifier, got %v", err)
			}
		})

		t.Run("Successful Exchange", func(t *testing.T) {
			var exchangeForm url.Values
			tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("failed to parse exchange form: %v", err)
				}
				exchangeForm = r.PostForm
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"access_token":"fresh_token","token_type":"Bearer","expires_in":3600}`)
			}))
			defer tokenServer.Close()

			kv := newMemKV()
			srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.config.Endpoint.TokenURL = tokenServer.URL

			if _, err := srv.BeginAuthorize(); err != nil {
				t.Fatalf("failed to begin authorize: %v", err)
			}
			verifier := kv.values[store.Key{UserID: "user-1", Field: store.FieldCodeVerifier}]

			handled, err := srv.HandleAuthorizationCallback(context.Background(), url.Values{"code": {"auth_code"}})
			if err != nil {
				t.Fatalf("expected exchange to succeed, got %v", err)
			}
			if !handled {
				t.Error("expected callback to be handled")
			}

			if exchangeForm.Get("code_verifier") != verifier {
				t.Error("expected exchange to send the persisted verifier")
			}
			if exchangeForm.Get("code") != "auth_code" {
				t.Errorf("expected authorization code in exchange, got %s", exchangeForm.Get("code"))
			}

			if !srv.IsAuthenticated() {
				t.Error("expected service authenticated after exchange")
			}
			if srv.State() != Authenticated {
				t.Errorf("expected Authenticated state, got %s", srv.State())
			}
			if kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}] != "fresh_token" {
				t.Error("expected access token persisted")
			}
			if _, ok := kv.values[store.Key{UserID: "user-1", Field: store.FieldCodeVerifier}]; ok {
				t.Error("expected verifier consumed after exchange")
			}
		})

		t.Run("Exchange Failure Leaves State Untouched", func(t *testing.T) {
			tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			}))
			defer tokenServer.Close()

			kv := newMemKV()
			srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.config.Endpoint.TokenURL = tokenServer.URL

			if _, err := srv.BeginAuthorize(); err != nil {
				t.Fatalf("failed to begin authorize: %v", err)
			}

			if _, err := srv.HandleAuthorizationCallback(context.Background(), url.Values{"code": {"bad_code"}}); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}

			if srv.IsAuthenticated() {
				t.Error("expected service unauthenticated after failed exchange")
			}
			if _, ok := kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}]; ok {
				t.Error("expected no access token persisted on failure")
			}
		})
	})

	t.Run("Logout", func(t *testing.T) {
		kv := newMemKV()
		kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}] = "stored_token"
		kv.values[store.Key{UserID: "user-1", Field: store.FieldCodeVerifier}] = "leftover"

		srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if err := srv.Logout(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if srv.IsAuthenticated() {
			t.Error("expected service unauthenticated after logout")
		}
		if len(kv.values) != 0 {
			t.Error("expected token and verifier cleared")
		}
	})

	t.Run("NowPlaying", func(t *testing.T) {
		authedService := func(t *testing.T, handler http.Handler) (*SpotifyService, *memKV, *httptest.Server) {
			t.Helper()

			api := httptest.NewServer(handler)
			t.Cleanup(api.Close)

			kv := newMemKV()
			kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}] = "test_token"

			srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}
			srv.baseURL = api.URL
			srv.httpClient = api.Client()

			return srv, kv, api
		}

		trackJSON := `{
			"id": "track_1",
			"name": "Holocene",
			"artists": [{"id": "a1", "name": "Bon Iver"}],
			"album": {"id": "al1", "name": "Bon Iver, Bon Iver", "images": [{"url": "https://img/art.jpg", "height": 640, "width": 640}]},
			"duration_ms": 337000,
			"external_urls": {"spotify": "https://open.spotify.com/track/track_1"}
		}`

		t.Run("Currently Playing", func(t *testing.T) {
			srv, _, _ := authedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer test_token" {
					t.Errorf("expected bearer token, got %s", r.Header.Get("Authorization"))
				}
				if r.URL.Path != "/me/player/currently-playing" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"is_playing": true, "item": %s}`, trackJSON)
			}))

			track, err := srv.NowPlaying(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track == nil {
				t.Fatal("expected a track")
			}

			if track.Title != "Holocene" {
				t.Errorf("expected title Holocene, got %s", track.Title)
			}
			if track.Artist != "Bon Iver" {
				t.Errorf("expected artist Bon Iver, got %s", track.Artist)
			}
			if track.Duration != 337 {
				t.Errorf("expected duration 337 seconds, got %d", track.Duration)
			}
			if track.AlbumArtURL != "https://img/art.jpg" {
				t.Errorf("expected album art URL, got %s", track.AlbumArtURL)
			}
		})

		t.Run("Falls Back To Recently Played", func(t *testing.T) {
			srv, _, _ := authedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/me/player/currently-playing":
					w.WriteHeader(http.StatusNoContent)
				case "/me/player/recently-played":
					if r.URL.Query().Get("limit") != "1" {
						t.Errorf("expected limit=1, got %s", r.URL.Query().Get("limit"))
					}
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprintf(w, `{"items": [{"track": %s, "played_at": "2025-06-01T09:00:00Z"}]}`, trackJSON)
				default:
					t.Errorf("unexpected path %s", r.URL.Path)
				}
			}))

			track, err := srv.NowPlaying(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track == nil {
				t.Fatal("expected fallback track")
			}
			if track.Title != "Holocene" {
				t.Errorf("expected title Holocene, got %s", track.Title)
			}
		})

		t.Run("Nothing Playing At All", func(t *testing.T) {
			srv, _, _ := authedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/me/player/currently-playing":
					w.WriteHeader(http.StatusNoContent)
				default:
					w.Header().Set("Content-Type", "application/json")
					fmt.Fprint(w, `{"items": []}`)
				}
			}))

			track, err := srv.NowPlaying(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if track != nil {
				t.Errorf("expected nil track, got %+v", track)
			}
		})

		t.Run("Expired Token Forces Logout", func(t *testing.T) {
			srv, kv, _ := authedService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))

			_, err := srv.NowPlaying(context.Background())
			if !IsAuthExpired(err) {
				t.Fatalf("expected auth expiry, got %v", err)
			}

			if srv.IsAuthenticated() {
				t.Error("expected forced logout after 401")
			}
			if _, ok := kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}]; ok {
				t.Error("expected stored token cleared after 401")
			}
		})

		t.Run("Unauthenticated Guard", func(t *testing.T) {
			srv, err := NewSpotifyService(testConfig(), newMemKV(), "user-1", nil)
			if err != nil {
				t.Fatalf("failed to create service: %v", err)
			}

			if _, err := srv.NowPlaying(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("RecentlyPlayed Clamps Limit", func(t *testing.T) {
		var gotLimit string
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotLimit = r.URL.Query().Get("limit")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"items": []}`)
		}))
		defer api.Close()

		kv := newMemKV()
		kv.values[store.Key{UserID: "user-1", Field: store.FieldAccessToken}] = "test_token"

		srv, err := NewSpotifyService(testConfig(), kv, "user-1", nil)
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		srv.baseURL = api.URL
		srv.httpClient = api.Client()

		if _, err := srv.RecentlyPlayed(context.Background(), 500); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if gotLimit != "50" {
			t.Errorf("expected limit clamped to 50, got %s", gotLimit)
		}
	})
}

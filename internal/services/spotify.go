// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/shared"
	"github.com/desertthunder/focusdeck/internal/store"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalURLs externalURLs    `json:"external_urls"`
	URI          string          `json:"uri"`
}

// SpotifyPlaybackState represents the /me/player/currently-playing response.
type SpotifyPlaybackState struct {
	IsPlaying bool          `json:"is_playing"`
	Item      *SpotifyTrack `json:"item"`
}

// SpotifyPlayHistoryItem represents one entry of the recently-played list.
type SpotifyPlayHistoryItem struct {
	Track    SpotifyTrack `json:"track"`
	PlayedAt string       `json:"played_at"`
}

// SpotifyPlayHistory represents the /me/player/recently-played response.
type SpotifyPlayHistory struct {
	Items []SpotifyPlayHistoryItem `json:"items"`
}

// SpotifyService implements [Service] for the Spotify Web API.
//
// Authorization uses the PKCE flow for public clients: no client secret is
// held and no refresh token is requested. An expired token is discovered
// reactively through a 401 response, which forces a logout; the user must
// re-authorize.
type SpotifyService struct {
	config     *oauth2.Config
	kv         store.KV
	userID     string
	token      *oauth2.Token
	state      AuthState
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string
}

// NewSpotifyService creates a new Spotify PKCE client scoped to the given
// user. A previously stored access token is picked up from the store.
func NewSpotifyService(cfg shared.SpotifyConfig, kv store.KV, userID string, logger *log.Logger) (*SpotifyService, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id", shared.ErrInvalidConfig)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://127.0.0.1:3000/callback"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: redirectURI,
		Scopes: []string{
			"user-read-recently-played",
			"user-read-currently-playing",
			"user-read-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	s := &SpotifyService{
		config:     config,
		kv:         kv,
		userID:     userID,
		state:      Unauthenticated,
		httpClient: http.DefaultClient,
		logger:     logger,
		baseURL:    spotifyBaseURL,
	}

	if token, err := kv.Get(s.key(store.FieldAccessToken)); err == nil && token != "" {
		s.token = &oauth2.Token{AccessToken: token}
		s.state = Authenticated
	}

	return s, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) key(field store.Field) store.Key {
	return store.Key{UserID: s.userID, Field: field}
}

// IsAuthenticated reports whether an access token is held.
func (s *SpotifyService) IsAuthenticated() bool {
	return s.token != nil && s.token.AccessToken != ""
}

// State returns the current authorization state.
func (s *SpotifyService) State() AuthState {
	return s.state
}

// BeginAuthorize generates a PKCE verifier, persists it under the user
// scope, and returns the authorization URL to open in a browser. The flow
// resumes in [HandleAuthorizationCallback] when the redirect arrives.
func (s *SpotifyService) BeginAuthorize() (string, error) {
	s.state = Authorizing

	verifier, err := GenerateVerifier(VerifierLength)
	if err != nil {
		return "", err
	}

	if err := s.kv.Set(s.key(store.FieldCodeVerifier), verifier); err != nil {
		return "", fmt.Errorf("failed to persist code verifier: %w", err)
	}

	authURL := s.config.AuthCodeURL("",
		oauth2.SetAuthURLParam("show_dialog", "true"),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2.SetAuthURLParam("code_challenge", DeriveChallenge(verifier)),
	)

	s.state = AwaitingCallback
	return authURL, nil
}

// HandleAuthorizationCallback inspects the redirect's query parameters for
// an authorization code and exchanges it for an access token.
//
// Returns (false, nil) with no side effects when no code is present. Fails
// with [shared.ErrMissingVerifier] when no verifier was stored (restarted
// session or cleared storage mid-flow). On exchange failure the stored token
// state is untouched. On success the token is persisted and the verifier is
// consumed.
func (s *SpotifyService) HandleAuthorizationCallback(ctx context.Context, query url.Values) (bool, error) {
	code := query.Get("code")
	if code == "" {
		return false, nil
	}

	verifier, err := s.kv.Get(s.key(store.FieldCodeVerifier))
	if err != nil || verifier == "" {
		return false, fmt.Errorf("%w: restart the authorize flow", shared.ErrMissingVerifier)
	}

	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return false, fmt.Errorf("%w: token exchange: %v", shared.ErrAuthFailed, err)
	}

	if err := s.kv.Set(s.key(store.FieldAccessToken), token.AccessToken); err != nil {
		return false, fmt.Errorf("failed to persist access token: %w", err)
	}

	// Verifier is single-use; a rerun of the callback is a no-op.
	if err := s.kv.Delete(s.key(store.FieldCodeVerifier)); err != nil {
		s.logger.Warnf("failed to clear code verifier: %v", err)
	}

	s.token = &oauth2.Token{AccessToken: token.AccessToken}
	s.state = Authenticated
	return true, nil
}

// Logout discards the access token and any leftover verifier.
func (s *SpotifyService) Logout() error {
	s.token = nil
	s.state = Unauthenticated

	if err := s.kv.Delete(s.key(store.FieldAccessToken)); err != nil {
		return err
	}
	return s.kv.Delete(s.key(store.FieldCodeVerifier))
}

// doRequest performs an authenticated GET against the Spotify API.
//
// A 401 response forces an immediate logout and returns
// [shared.ErrAuthExpired]. A 204 leaves result untouched.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if !s.IsAuthenticated() {
		return shared.ErrNotAuthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if logoutErr := s.Logout(); logoutErr != nil {
			s.logger.Warnf("forced logout failed: %v", logoutErr)
		}
		return shared.ErrAuthExpired
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// CurrentlyPlaying returns the track playing right now, or nil when playback
// is idle.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*models.Track, error) {
	var state SpotifyPlaybackState
	if err := s.doRequest(ctx, "/me/player/currently-playing", &state); err != nil {
		return nil, err
	}
	if state.Item == nil {
		return nil, nil
	}

	track := normalizeTrack(*state.Item)
	return &track, nil
}

// RecentlyPlayed returns the most recent entries of the user's play history.
func (s *SpotifyService) RecentlyPlayed(ctx context.Context, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	var history SpotifyPlayHistory
	endpoint := fmt.Sprintf("/me/player/recently-played?limit=%d", limit)
	if err := s.doRequest(ctx, endpoint, &history); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(history.Items))
	for _, item := range history.Items {
		tracks = append(tracks, normalizeTrack(item.Track))
	}

	return tracks, nil
}

// NowPlaying attempts the currently-playing endpoint first and falls back to
// the most recent play-history item. Returns (nil, nil) when both are empty.
func (s *SpotifyService) NowPlaying(ctx context.Context) (*models.Track, error) {
	track, err := s.CurrentlyPlaying(ctx)
	if err != nil {
		return nil, err
	}
	if track != nil {
		return track, nil
	}

	recent, err := s.RecentlyPlayed(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) == 0 {
		return nil, nil
	}

	return &recent[0], nil
}

// normalizeTrack converts a Spotify track payload to the display model.
func normalizeTrack(t SpotifyTrack) models.Track {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		names = append(names, artist.Name)
	}

	track := models.Track{
		ID:          t.ID,
		Title:       t.Name,
		Artist:      strings.Join(names, ", "),
		Album:       t.Album.Name,
		Duration:    t.DurationMS / 1000,
		ExternalURL: t.ExternalURLs.Spotify,
	}

	if len(t.Album.Images) > 0 {
		track.AlbumArtURL = t.Album.Images[0].URL
	}

	return track
}

// IsAuthExpired reports whether err is the forced-logout expiry signal.
func IsAuthExpired(err error) bool {
	return errors.Is(err, shared.ErrAuthExpired)
}

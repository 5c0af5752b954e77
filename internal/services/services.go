// package services defines the [Service] interface for now-playing providers
package services

import (
	"context"

	"github.com/desertthunder/focusdeck/internal/models"
)

// Service defines the interface for music providers that can report the
// current or most recently played track.
type Service interface {
	// IsAuthenticated reports whether an access token is currently held.
	IsAuthenticated() bool

	// NowPlaying returns the currently playing track, falling back to the
	// most recently played one. Returns (nil, nil) when neither source has
	// data.
	NowPlaying(ctx context.Context) (*models.Track, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// AuthState enumerates the authorization client's states.
type AuthState int

const (
	Unauthenticated AuthState = iota
	Authorizing
	AwaitingCallback
	Authenticated
)

func (s AuthState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authorizing:
		return "authorizing"
	case AwaitingCallback:
		return "awaiting_callback"
	case Authenticated:
		return "authenticated"
	default:
		return ""
	}
}

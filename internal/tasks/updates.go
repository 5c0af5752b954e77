package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/focusdeck/internal/models"
	"github.com/desertthunder/focusdeck/internal/services"
	"github.com/desertthunder/focusdeck/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultPollInterval is the now-playing refresh cadence.
const DefaultPollInterval = 30 * time.Second

// TrackUpdate is one poll result delivered to the display surface.
//
// Track is nil when nothing is playing and nothing was played recently.
// Err carries retryable fetch failures; the poller keeps going after them.
type TrackUpdate struct {
	Track *models.Track
	Err   error
	At    time.Time
}

// NowPlayingPoller periodically fetches the current track from a [services.Service].
type NowPlayingPoller struct {
	service  services.Service
	interval time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewNowPlayingPoller creates a poller with the given cadence.
func NewNowPlayingPoller(service services.Service, interval time.Duration, logger *log.Logger) *NowPlayingPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NowPlayingPoller{
		service:  service,
		interval: interval,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   logger,
	}
}

// Run polls until ctx is cancelled or authorization is lost, sending every
// result on updates. The channel is closed when the poller stops.
//
// Fetch failures other than expiry are delivered and retried on the next
// tick; an authorization-expired failure is delivered and ends the run.
func (p *NowPlayingPoller) Run(ctx context.Context, updates chan<- TrackUpdate) {
	defer close(updates)

	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return
		}

		if !p.service.IsAuthenticated() {
			p.logger.Info("now-playing poll stopped: not authenticated")
			return
		}

		track, err := p.service.NowPlaying(ctx)
		update := TrackUpdate{Track: track, Err: err, At: time.Now()}

		select {
		case updates <- update:
		case <-ctx.Done():
			return
		}

		if services.IsAuthExpired(err) {
			p.logger.Warn("now-playing poll stopped: authorization expired")
			return
		}
		if err != nil {
			p.logger.Warnf("now-playing fetch failed, will retry: %v", err)
		}
	}
}

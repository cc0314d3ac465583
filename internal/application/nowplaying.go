package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// refreshRequest asks the poll loop for an immediate cycle.
type refreshRequest struct {
	done chan error
}

// NowPlayingPoller polls a streaming client for the current track, adapting
// its interval to the playback state, and hands every result to a callback.
type NowPlayingPoller struct {
	client    *StreamingClient
	creds     *model.Credentials
	retrier   *Retrier
	onUpdate  func(model.PlaybackUpdate)
	interval  func(PlaybackTier) time.Duration
	now       func() time.Time
	logger    zerolog.Logger
	refreshCh chan refreshRequest

	mu   sync.RWMutex
	last model.PlaybackUpdate
	seen bool
}

// NewNowPlayingPoller creates a poller. creds may be nil, in which case a
// stale token stops yielding tracks until the user re-authenticates.
// retrier supplies the rate-limit wait and may be nil.
func NewNowPlayingPoller(
	client *StreamingClient,
	creds *model.Credentials,
	retrier *Retrier,
	onUpdate func(model.PlaybackUpdate),
	logger zerolog.Logger,
) *NowPlayingPoller {
	if onUpdate == nil {
		onUpdate = func(model.PlaybackUpdate) {}
	}
	return &NowPlayingPoller{
		client:    client,
		creds:     creds,
		retrier:   retrier,
		onUpdate:  onUpdate,
		interval:  tierInterval,
		now:       time.Now,
		logger:    logger,
		refreshCh: make(chan refreshRequest),
	}
}

// Start polls immediately, then again after each tier interval or manual
// refresh. It blocks until ctx is canceled.
func (p *NowPlayingPoller) Start(ctx context.Context) {
	svc := string(p.client.Service())
	defer func() {
		p.logger.Info().Str("service", svc).Msg("now-playing poller stopped")
	}()

	update := p.poll(ctx)
	for ctx.Err() == nil {
		if errors.Is(update.Err, model.ErrRateLimited) && p.retrier != nil {
			if err := p.retrier.WaitRateLimit(ctx); err != nil {
				return
			}
			update = p.poll(ctx)
			continue
		}

		timer := time.NewTimer(p.interval(classifyPlayback(update)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			update = p.poll(ctx)
		case req := <-p.refreshCh:
			timer.Stop()
			update = p.poll(ctx)
			req.done <- update.Err
		}
	}
}

// Refresh triggers an immediate poll and returns its error. It blocks until
// the poll completes or ctx is canceled.
func (p *NowPlayingPoller) Refresh(ctx context.Context) error {
	req := refreshRequest{done: make(chan error, 1)}

	select {
	case p.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Last returns the most recent update, if any poll has completed.
func (p *NowPlayingPoller) Last() (model.PlaybackUpdate, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.seen
}

func (p *NowPlayingPoller) poll(ctx context.Context) model.PlaybackUpdate {
	start := p.now()
	track, err := p.client.NowPlayingWithRefresh(ctx, p.creds)
	update := model.PlaybackUpdate{
		Service:   p.client.Service(),
		Track:     track,
		Err:       model.ToServiceError(err),
		CheckedAt: start,
	}

	if ctx.Err() != nil {
		return update
	}

	ev := p.logger.Debug()
	if err != nil {
		ev = p.logger.Warn().Err(err).Str("category", model.Category(err))
	}
	ev.Str("service", string(update.Service)).
		Str("tier", classifyPlayback(update).String()).
		Dur("duration", p.now().Sub(start)).
		Msg("now-playing poll complete")

	p.mu.Lock()
	p.last, p.seen = update, true
	p.mu.Unlock()

	p.onUpdate(update)
	return update
}

package arcade

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper expires sessions whose countdown has run out.
type Reaper struct {
	svc      *Service
	interval time.Duration
	stopCh   chan struct{}
	done     chan struct{}
}

func NewReaper(svc *Service, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{
		svc:      svc,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Reaper) Start() {
	log.Info().Dur("interval", r.interval).Msg("Starting arcade session reaper")
	go r.loop()
}

// Stop waits for an in-flight sweep to finish.
func (r *Reaper) Stop() {
	close(r.stopCh)
	<-r.done
	log.Info().Msg("Arcade session reaper stopped")
}

func (r *Reaper) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.sweep()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Reaper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := r.svc.ExpireDue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire arcade sessions")
		return
	}
	if n > 0 {
		log.Info().Int("count", n).Msg("Expired arcade sessions")
	}
}

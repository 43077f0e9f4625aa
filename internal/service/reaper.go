package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonpay/paylink-agent/internal/biz/usecase"
)

// Reaper periodically evicts per-user state idle beyond a TTL so a
// long-lived deployment does not grow without bound.
type Reaper struct {
	onboarding *usecase.OnboardingUsecase
	payment    *usecase.PaymentUsecase

	ttl      time.Duration
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReaper creates a new reaper
func NewReaper(onboarding *usecase.OnboardingUsecase, payment *usecase.PaymentUsecase, ttl time.Duration) *Reaper {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Reaper{
		onboarding: onboarding,
		payment:    payment,
		ttl:        ttl,
		interval:   interval,
	}
}

// Start starts the reap loop
func (r *Reaper) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop()
	fmt.Printf("[Reaper] Started, ttl=%v interval=%v\n", r.ttl, r.interval)
}

// Stop stops the reap loop
func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	fmt.Println("[Reaper] Stopped")
}

func (r *Reaper) loop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep evicts idle onboarding entries; their registry windows and any
// pending payment context go with them
func (r *Reaper) sweep() {
	removed := r.onboarding.Sweep(r.ttl, func(userID string) {
		r.payment.Remove(userID)
	})
	if removed > 0 {
		fmt.Printf("[Reaper] Evicted %d idle users\n", removed)
	}
}

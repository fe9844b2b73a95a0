// Package redeem periodically redeems resolved Polymarket positions held by
// the signer's Safe through the gasless relayer.
package redeem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/betbot/polyrelay/pkg/logger"
	"github.com/betbot/polyrelay/pkg/persistence"
	"github.com/betbot/polyrelay/pkg/ratelimit"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval = 3 * time.Minute
	// relayer limit is 15/min, 12/min leaves headroom
	DefaultPerMinute = 12
	// max redeems per cycle to stay under the daily quota
	DefaultMaxPerCycle = 50
	// submitted positions are skipped until the data API catches up
	DefaultDedupeWindow = 10 * time.Minute

	stopTimeout = 3 * time.Second
)

// Relayer is the part of relayer.Client the redeemer drives.
type Relayer interface {
	ExpectedSafe() (common.Address, error)
	GetRedeemablePositions(ctx context.Context, user string) ([]types.RedeemablePosition, error)
	RedeemPosition(ctx context.Context, pos types.RedeemablePosition) (*types.SubmitResponse, error)
}

// Options tunes an AutoRedeemer. Zero values take the defaults above.
type Options struct {
	Interval     time.Duration
	PerMinute    int
	MaxPerCycle  int
	DedupeWindow time.Duration

	// Store persists the submitted set across restarts; nil keeps it in memory.
	Store   persistence.Store
	Limiter ratelimit.RateLimiter
	Now     func() time.Time
}

// Stats are cumulative over the redeemer's lifetime.
type Stats struct {
	Cycles        int             `json:"cycles"`
	TotalRedeemed int             `json:"totalRedeemed"`
	TotalFailed   int             `json:"totalFailed"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	LastRedeem    time.Time       `json:"lastRedeem"`
	LastCycle     time.Time       `json:"lastCycle"`
}

type persistedState struct {
	Submitted map[string]time.Time `json:"submitted"`
}

// AutoRedeemer automatically redeems resolved positions via the relayer.
type AutoRedeemer struct {
	relayer Relayer
	opts    Options
	log     *logrus.Entry

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// cycle serializes RunOnce between the loop and manual callers
	cycle sync.Mutex

	mu        sync.Mutex
	submitted map[string]time.Time
	stats     Stats
}

// NewAutoRedeemer builds a redeemer and restores the submitted set from
// opts.Store when present.
func NewAutoRedeemer(r Relayer, opts Options) (*AutoRedeemer, error) {
	if r == nil {
		return nil, errors.New("redeem: relayer is nil")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.PerMinute <= 0 {
		opts.PerMinute = DefaultPerMinute
	}
	if opts.MaxPerCycle <= 0 {
		opts.MaxPerCycle = DefaultMaxPerCycle
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = DefaultDedupeWindow
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.PerMinute(opts.PerMinute)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ar := &AutoRedeemer{
		relayer:   r,
		opts:      opts,
		log:       logger.Component("redeem"),
		submitted: make(map[string]time.Time),
	}
	if opts.Store != nil {
		var st persistedState
		err := opts.Store.Load(&st)
		switch {
		case err == nil:
			for k, v := range st.Submitted {
				ar.submitted[k] = v
			}
			ar.log.Infof("restored %d submitted redeems", len(ar.submitted))
		case errors.Is(err, persistence.ErrNotExists):
		default:
			return nil, errors.Wrap(err, "redeem: load state")
		}
	}
	return ar, nil
}

// Start runs one cycle immediately and then one every Interval until Stop
// or ctx is cancelled.
func (ar *AutoRedeemer) Start(ctx context.Context) error {
	ar.runMu.Lock()
	defer ar.runMu.Unlock()
	if ar.running {
		return errors.New("redeem: auto-redeemer already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	ar.running = true
	ar.cancel = cancel
	ar.wg.Add(1)
	go ar.loop(ctx)
	ar.log.Infof("started, runs every %s", ar.opts.Interval)
	return nil
}

// Stop halts the loop and waits briefly for the in-flight cycle.
func (ar *AutoRedeemer) Stop() {
	ar.runMu.Lock()
	if !ar.running {
		ar.runMu.Unlock()
		return
	}
	ar.running = false
	ar.cancel()
	ar.runMu.Unlock()

	done := make(chan struct{})
	go func() {
		ar.wg.Wait()
		close(done)
	}()

	stats := ar.Stats()
	select {
	case <-done:
		ar.log.Infof("stopped, total redeemed: %d positions, value %s", stats.TotalRedeemed, stats.TotalValue.StringFixed(2))
	case <-time.After(stopTimeout):
		ar.log.Warnf("stop timeout after %s, total redeemed: %d positions", stopTimeout, stats.TotalRedeemed)
	}
}

// Running reports whether the loop is active.
func (ar *AutoRedeemer) Running() bool {
	ar.runMu.Lock()
	defer ar.runMu.Unlock()
	return ar.running
}

// Stats returns a snapshot of the redemption statistics.
func (ar *AutoRedeemer) Stats() Stats {
	ar.mu.Lock()
	defer ar.mu.Unlock()
	return ar.stats
}

func (ar *AutoRedeemer) loop(ctx context.Context) {
	defer ar.wg.Done()

	ar.runCycle(ctx)

	ticker := time.NewTicker(ar.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ar.runCycle(ctx)
		}
	}
}

func (ar *AutoRedeemer) runCycle(ctx context.Context) {
	res, err := ar.RunOnce(ctx)
	if err != nil && ctx.Err() == nil {
		ar.log.WithError(err).Warn("redeem cycle failed")
		return
	}
	if res.Candidates > 0 {
		ar.log.Infof("cycle done: candidates=%d redeemed=%d failed=%d quota=%v",
			res.Candidates, res.Redeemed, res.Failed, res.QuotaExceeded)
	}
}

func positionKey(p types.RedeemablePosition) string {
	return fmt.Sprintf("%s-%d", p.ConditionID, p.OutcomeIndex)
}

// pruneSubmitted drops entries older than the dedupe window. Caller holds mu.
func (ar *AutoRedeemer) pruneSubmitted(now time.Time) {
	cutoff := now.Add(-ar.opts.DedupeWindow)
	for key, at := range ar.submitted {
		if at.Before(cutoff) {
			delete(ar.submitted, key)
		}
	}
}

func (ar *AutoRedeemer) saveState() {
	if ar.opts.Store == nil {
		return
	}
	ar.mu.Lock()
	st := persistedState{Submitted: make(map[string]time.Time, len(ar.submitted))}
	for k, v := range ar.submitted {
		st.Submitted[k] = v
	}
	ar.mu.Unlock()
	if err := ar.opts.Store.Save(st); err != nil {
		ar.log.WithError(err).Warn("save redeem state failed")
	}
}

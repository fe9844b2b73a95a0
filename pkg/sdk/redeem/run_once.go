package redeem

import (
	"context"

	"github.com/betbot/polyrelay/pkg/sdk/relayer"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/pkg/errors"
)

// CycleResult summarizes one redemption cycle.
type CycleResult struct {
	Candidates    int                    `json:"candidates"`
	Skipped       int                    `json:"skipped"`
	Redeemed      int                    `json:"redeemed"`
	Failed        int                    `json:"failed"`
	QuotaExceeded bool                   `json:"quotaExceeded"`
	Results       []relayer.RedeemResult `json:"-"`
}

// RunOnce fetches the Safe's redeemable positions and submits a redeem for
// each one not submitted within the dedupe window, paced by the limiter.
// A relayer quota error ends the cycle early; the remaining positions are
// left for the next cycle.
func (ar *AutoRedeemer) RunOnce(ctx context.Context) (CycleResult, error) {
	ar.cycle.Lock()
	defer ar.cycle.Unlock()

	var out CycleResult

	safe, err := ar.relayer.ExpectedSafe()
	if err != nil {
		return out, err
	}

	now := ar.opts.Now()
	ar.mu.Lock()
	ar.pruneSubmitted(now)
	ar.stats.Cycles++
	ar.stats.LastCycle = now
	ar.mu.Unlock()

	positions, err := ar.relayer.GetRedeemablePositions(ctx, safe.Hex())
	if err != nil {
		return out, err
	}

	var pending []types.RedeemablePosition
	ar.mu.Lock()
	for _, p := range positions {
		if _, done := ar.submitted[positionKey(p)]; done {
			out.Skipped++
			continue
		}
		pending = append(pending, p)
	}
	ar.mu.Unlock()

	if len(pending) > ar.opts.MaxPerCycle {
		ar.log.Infof("found %d redeemable positions, processing %d this cycle", len(pending), ar.opts.MaxPerCycle)
		pending = pending[:ar.opts.MaxPerCycle]
	}
	out.Candidates = len(pending)

	defer ar.saveState()

	for _, pos := range pending {
		if err := ar.opts.Limiter.Wait(ctx); err != nil {
			return out, err
		}

		resp, err := ar.relayer.RedeemPosition(ctx, pos)
		out.Results = append(out.Results, relayer.RedeemResult{Position: pos, Response: resp, Err: err})
		if err != nil {
			var apiErr *relayer.APIError
			if errors.As(err, &apiErr) && apiErr.QuotaExceeded() {
				ar.log.Warn("relayer quota exceeded, stopping cycle")
				out.QuotaExceeded = true
				break
			}
			ar.log.WithError(err).WithField("condition", pos.ConditionID).Warnf("redeem %q failed", pos.Title)
			out.Failed++
			ar.mu.Lock()
			ar.stats.TotalFailed++
			ar.mu.Unlock()
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}

		ar.log.WithField("condition", pos.ConditionID).Infof("redeem submitted: %s id=%s", pos.Title, resp.TransactionID)
		out.Redeemed++
		at := ar.opts.Now()
		ar.mu.Lock()
		ar.submitted[positionKey(pos)] = at
		ar.stats.TotalRedeemed++
		ar.stats.TotalValue = ar.stats.TotalValue.Add(pos.CurrentValue)
		ar.stats.LastRedeem = at
		ar.mu.Unlock()
	}
	return out, nil
}

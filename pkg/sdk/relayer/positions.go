package relayer

import (
	"context"
	"fmt"
	"net/http"

	sdkhttp "github.com/betbot/polyrelay/pkg/sdk/http"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/ctf"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
)

// GetRedeemablePositions lists positions of user that the data API marks
// redeemable and that still carry value.
func (c *Client) GetRedeemablePositions(ctx context.Context, user string) ([]types.RedeemablePosition, error) {
	var raw []types.PositionData
	_, err := c.dataAPI.DoRequest(ctx, http.MethodGet, "/positions", &sdkhttp.RequestOptions{
		Params: map[string]any{
			"user":          user,
			"redeemable":    "true",
			"sizeThreshold": "0.1",
			"limit":         "100",
			"offset":        "0",
			"sortBy":        "CURRENT",
			"sortDirection": "DESC",
		},
	}, &raw)
	if err != nil {
		return nil, apiError(err)
	}

	out := make([]types.RedeemablePosition, 0, len(raw))
	for _, p := range raw {
		if r, ok := p.ToRedeemable(); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// RedeemResult is the outcome of one position in RedeemAllPositions.
type RedeemResult struct {
	Position types.RedeemablePosition
	Response *types.SubmitResponse
	Err      error
}

// RedeemPosition redeems the outcome slot held by pos.
func (c *Client) RedeemPosition(ctx context.Context, pos types.RedeemablePosition) (*types.SubmitResponse, error) {
	if pos.OutcomeIndex < 0 || pos.OutcomeIndex >= ctf.MaxOutcomeSlots {
		return nil, invalidParam("outcome index %d out of range [0,%d)", pos.OutcomeIndex, ctf.MaxOutcomeSlots)
	}
	indexSet := ctf.IndexSetForOutcome(uint(pos.OutcomeIndex))
	return c.RedeemPositions(ctx, pos.ConditionID, []uint64{indexSet}, fmt.Sprintf("Redeem: %s", pos.Title))
}

// RedeemAllPositions redeems every redeemable position of the signer's Safe.
// Each position is submitted independently; a failure is recorded in its
// result and the batch continues.
func (c *Client) RedeemAllPositions(ctx context.Context) ([]RedeemResult, error) {
	safe, err := c.ExpectedSafe()
	if err != nil {
		return nil, err
	}
	if err := c.requireWriter(); err != nil {
		return nil, err
	}
	positions, err := c.GetRedeemablePositions(ctx, safe.Hex())
	if err != nil {
		return nil, err
	}

	results := make([]RedeemResult, 0, len(positions))
	for _, pos := range positions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		resp, err := c.RedeemPosition(ctx, pos)
		if err != nil {
			c.log.WithError(err).WithField("condition", pos.ConditionID).Warn("redeem failed")
		}
		results = append(results, RedeemResult{Position: pos, Response: resp, Err: err})
	}
	return results, nil
}

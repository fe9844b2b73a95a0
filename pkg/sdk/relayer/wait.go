package relayer

import (
	"context"
	"time"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/sirupsen/logrus"
)

// WaitForTransaction polls the relayer until transaction id reaches a terminal
// state. Non-positive maxPolls or interval fall back to the client defaults
// (30 polls, 2s apart).
//
// It returns the transaction once it is mined or confirmed, and a
// *TransactionFailedError as soon as it is failed or invalid. If maxPolls polls
// pass without a terminal state it returns (nil, nil): the outcome is not yet
// known and the caller may wait again.
func (c *Client) WaitForTransaction(ctx context.Context, id string, maxPolls int, interval time.Duration) (*types.RelayerTransaction, error) {
	if id == "" {
		return nil, invalidParam("transaction id is empty")
	}
	if maxPolls <= 0 {
		maxPolls = c.maxPolls
	}
	if interval <= 0 {
		interval = c.pollInterval
	}
	log := c.log.WithField("id", id)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	last := types.StateUnknown
	for poll := 1; poll <= maxPolls; poll++ {
		txs, err := c.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(txs) > 0 {
			tx := txs[0]
			state := tx.ParsedState()
			if state != last {
				log.WithFields(logrus.Fields{"state": state, "poll": poll}).Debug("transaction state")
				last = state
				if c.recorder != nil {
					if err := c.recorder.RecordState(ctx, tx); err != nil {
						log.WithError(err).Warn("journal state failed")
					}
				}
			}
			switch {
			case state.IsSuccess():
				log.WithField("hash", tx.TransactionHash).Info("transaction succeeded")
				return &tx, nil
			case state.IsFailure():
				log.WithField("state", state).Warn("transaction failed")
				return nil, &TransactionFailedError{
					TransactionID:   id,
					TransactionHash: tx.TransactionHash,
					State:           state,
				}
			}
		}

		if poll == maxPolls {
			break
		}
		if timer == nil {
			timer = time.NewTimer(interval)
		} else {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	log.WithField("polls", maxPolls).Info("transaction not terminal yet")
	return nil, nil
}

package types

import (
	"encoding/json"
	"strings"
)

// TransactionState is the relayer-reported lifecycle state. States only move
// forward: New -> Executed -> Mined -> Confirmed, or to Failed/Invalid.
type TransactionState int

const (
	StateUnknown TransactionState = iota
	StateNew
	StateExecuted
	StateMined
	StateConfirmed
	StateFailed
	StateInvalid
)

var stateNames = map[TransactionState]string{
	StateNew:       "STATE_NEW",
	StateExecuted:  "STATE_EXECUTED",
	StateMined:     "STATE_MINED",
	StateConfirmed: "STATE_CONFIRMED",
	StateFailed:    "STATE_FAILED",
	StateInvalid:   "STATE_INVALID",
}

// ParseTransactionState maps a wire string to a state. Unrecognised strings
// yield StateUnknown, which is non-terminal.
func ParseTransactionState(s string) TransactionState {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "STATE_") {
		s = "STATE_" + s
	}
	for st, name := range stateNames {
		if name == s {
			return st
		}
	}
	return StateUnknown
}

func (s TransactionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "STATE_UNKNOWN"
}

// IsSuccess reports whether the transaction landed on chain.
func (s TransactionState) IsSuccess() bool {
	switch s {
	case StateMined, StateConfirmed:
		return true
	}
	return false
}

// IsFailure reports whether the relayer gave up on the transaction.
func (s TransactionState) IsFailure() bool {
	switch s {
	case StateFailed, StateInvalid:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is expected.
func (s TransactionState) IsTerminal() bool {
	return s.IsSuccess() || s.IsFailure()
}

func (s TransactionState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *TransactionState) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = ParseTransactionState(raw)
	return nil
}

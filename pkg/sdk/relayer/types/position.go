package types

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// LenientDecimal decodes a JSON number or numeric string. Empty strings,
// null and unparsable values decode as zero.
type LenientDecimal struct {
	decimal.Decimal
}

func (d *LenientDecimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(b, `"`)))
	v, err := decimal.NewFromString(s)
	if err != nil {
		v = decimal.Zero
	}
	d.Decimal = v
	return nil
}

// PositionData is one record of the data API /positions endpoint.
type PositionData struct {
	ProxyWallet  string         `json:"proxyWallet"`
	Asset        string         `json:"asset"`
	ConditionID  string         `json:"conditionId"`
	Size         LenientDecimal `json:"size"`
	AvgPrice     LenientDecimal `json:"avgPrice"`
	InitialValue LenientDecimal `json:"initialValue"`
	CurrentValue LenientDecimal `json:"currentValue"`
	CurPrice     LenientDecimal `json:"curPrice"`
	Redeemable   bool           `json:"redeemable"`
	Mergeable    bool           `json:"mergeable"`
	Title        string         `json:"title"`
	Slug         string         `json:"slug"`
	Outcome      string         `json:"outcome"`
	OutcomeIndex int            `json:"outcomeIndex"`
	NegativeRisk bool           `json:"negativeRisk"`
}

// RedeemablePosition is the projection used to build a redeem call.
type RedeemablePosition struct {
	ConditionID  string          `json:"conditionId"`
	Asset        string          `json:"asset"`
	Size         decimal.Decimal `json:"size"`
	Outcome      string          `json:"outcome"`
	OutcomeIndex int             `json:"outcomeIndex"`
	Title        string          `json:"title"`
	CurrentValue decimal.Decimal `json:"currentValue"`
}

// ToRedeemable projects a position, reporting false when it has no value left.
func (p PositionData) ToRedeemable() (RedeemablePosition, bool) {
	if !p.CurrentValue.IsPositive() {
		return RedeemablePosition{}, false
	}
	return RedeemablePosition{
		ConditionID:  p.ConditionID,
		Asset:        p.Asset,
		Size:         p.Size.Decimal,
		Outcome:      p.Outcome,
		OutcomeIndex: p.OutcomeIndex,
		Title:        p.Title,
		CurrentValue: p.CurrentValue.Decimal,
	}, true
}

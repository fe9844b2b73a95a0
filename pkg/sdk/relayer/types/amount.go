package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// USDCToBaseUnits 将 USDC 数量转换为 6 位小数的链上单位，如 "1.5" -> "1500000"。
// 超出精度的部分向下截断；负数和非数字返回错误。
func USDCToBaseUnits(amount string) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("invalid USDC amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return "", fmt.Errorf("invalid USDC amount %q: negative", amount)
	}
	return d.Shift(CollateralTokenDecimals).Truncate(0).String(), nil
}

// BaseUnitsToUSDC 链上单位转换为 USDC 数量
func BaseUnitsToUSDC(units string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(units))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid base units %q: %w", units, err)
	}
	return d.Shift(-CollateralTokenDecimals), nil
}

package ctf

import (
	"encoding/hex"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCollateral = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	testCondition  = "0x5f65177b394277fd294cd75650044e32ba009a95022d88a0c1d565897d72f8f1"
)

func TestSelectorsMatchSignatures(t *testing.T) {
	tests := []struct {
		sig      string
		selector string
	}{
		{"redeemPositions(address,bytes32,bytes32,uint256[])", SelectorRedeemPositions},
		{"splitPosition(address,bytes32,bytes32,uint256[],uint256)", SelectorSplitPosition},
		{"mergePositions(address,bytes32,bytes32,uint256[],uint256)", SelectorMergePositions},
		{"approve(address,uint256)", SelectorApprove},
		{"setApprovalForAll(address,bool)", SelectorSetApprovalForAll},
	}
	for _, tt := range tests {
		got := hex.EncodeToString(crypto.Keccak256([]byte(tt.sig))[:4])
		assert.Equal(t, tt.selector, got, tt.sig)
	}
}

func words(t *testing.T, data, selector string) []string {
	t.Helper()
	require.True(t, strings.HasPrefix(data, "0x"+selector), "missing selector in %s", data)
	body := strings.TrimPrefix(data, "0x"+selector)
	require.Zero(t, len(body)%64, "body not word aligned")
	out := make([]string, 0, len(body)/64)
	for i := 0; i < len(body); i += 64 {
		out = append(out, body[i:i+64])
	}
	return out
}

func wordOf(n int64) string {
	return hex.EncodeToString(common.LeftPadBytes(big.NewInt(n).Bytes(), 32))
}

func TestEncodeRedeemPositionsLayout(t *testing.T) {
	data := EncodeRedeemPositions(testCollateral, testCondition, []uint64{1, 2})
	assert.Equal(t, strings.ToLower(data), data)

	w := words(t, data, "01b7037c")
	require.Len(t, w, 7)
	assert.Equal(t, "000000000000000000000000"+strings.ToLower(testCollateral[2:]), w[0])
	assert.Equal(t, strings.Repeat("0", 64), w[1])
	assert.Equal(t, testCondition[2:], w[2])
	assert.Equal(t, wordOf(128), w[3])
	assert.Equal(t, wordOf(2), w[4])
	assert.Equal(t, wordOf(1), w[5])
	assert.Equal(t, wordOf(2), w[6])
}

func TestEncodeRedeemPositionsMatchesABIPack(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)

	packed, err := parsed.Pack("redeemPositions",
		common.HexToAddress(testCollateral),
		[32]byte{},
		[32]byte(common.HexToHash(testCondition)),
		[]*big.Int{big.NewInt(2)},
	)
	require.NoError(t, err)
	assert.Equal(t, "0x"+hex.EncodeToString(packed), EncodeRedeemPositions(testCollateral, testCondition, []uint64{2}))
}

func TestEncodeSplitAndMergeMatchABIPack(t *testing.T) {
	parsed, err := ParsedABI()
	require.NoError(t, err)

	for _, tt := range []struct {
		method string
		encode func(string, string, string) string
	}{
		{"splitPosition", EncodeSplitPosition},
		{"mergePositions", EncodeMergePositions},
	} {
		packed, err := parsed.Pack(tt.method,
			common.HexToAddress(testCollateral),
			[32]byte{},
			[32]byte(common.HexToHash(testCondition)),
			[]*big.Int{big.NewInt(1), big.NewInt(2)},
			big.NewInt(25_000_000),
		)
		require.NoError(t, err)
		assert.Equal(t, "0x"+hex.EncodeToString(packed), tt.encode(testCollateral, testCondition, "25000000"), tt.method)
	}
}

func TestEncodeSplitPositionLayout(t *testing.T) {
	w := words(t, EncodeSplitPosition(testCollateral, testCondition, "1000000"), SelectorSplitPosition)
	require.Len(t, w, 8)
	assert.Equal(t, wordOf(160), w[3], "partition offset")
	assert.Equal(t, wordOf(1_000_000), w[4], "amount")
	assert.Equal(t, []string{wordOf(2), wordOf(1), wordOf(2)}, w[5:])
}

func TestMalformedAmountEncodesZero(t *testing.T) {
	w := words(t, EncodeMergePositions(testCollateral, testCondition, ""), SelectorMergePositions)
	assert.Equal(t, strings.Repeat("0", 64), w[4])
}

func TestEncodeApprove(t *testing.T) {
	spender := "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"
	w := words(t, EncodeApprove(spender, "1000"), SelectorApprove)
	require.Len(t, w, 2)
	assert.Equal(t, wordOf(1000), w[1])

	w = words(t, EncodeApproveMax(spender), SelectorApprove)
	require.Len(t, w, 2)
	assert.Equal(t, strings.Repeat("f", 64), w[1])
}

func TestEncodeSetApprovalForAll(t *testing.T) {
	op := "0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"
	assert.Equal(t, wordOf(1), words(t, EncodeSetApprovalForAll(op, true), SelectorSetApprovalForAll)[1])
	assert.Equal(t, wordOf(0), words(t, EncodeSetApprovalForAll(op, false), SelectorSetApprovalForAll)[1])
}

func TestDecodeRoundTripsRedeem(t *testing.T) {
	name, args, err := decode(EncodeRedeemPositions(testCollateral, testCondition, []uint64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, "redeemPositions", name)
	require.Len(t, args, 4)
	assert.Equal(t, common.HexToAddress(testCollateral), args[0].(common.Address))
	assert.Equal(t, [32]byte(common.HexToHash(testCondition)), args[2].([32]byte))
	sets := args[3].([]*big.Int)
	require.Len(t, sets, 2)
	assert.Equal(t, int64(1), sets[0].Int64())
	assert.Equal(t, int64(2), sets[1].Int64())
}

func TestMethodName(t *testing.T) {
	assert.Equal(t, "approve", MethodName(EncodeApproveMax(testCollateral)))
	assert.Equal(t, "", MethodName("0xdeadbeef"))
	assert.Equal(t, "", MethodName("0x"))
}

func TestIndexSetForOutcome(t *testing.T) {
	assert.Equal(t, uint64(1), IndexSetForOutcome(0))
	assert.Equal(t, uint64(2), IndexSetForOutcome(1))
	assert.Equal(t, uint64(4), IndexSetForOutcome(2))
	assert.Equal(t, uint64(1)<<63, IndexSetForOutcome(63))
	assert.Zero(t, IndexSetForOutcome(MaxOutcomeSlots))
}

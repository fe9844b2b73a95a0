package relayer

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multiSendABI = `[{"inputs":[{"internalType":"bytes","name":"transactions","type":"bytes"}],"name":"multiSend","outputs":[],"stateMutability":"payable","type":"function"}]`

func TestAggregateSinglePassesThrough(t *testing.T) {
	in := types.NewSafeTransaction("0x01", "0xabcd").WithOperation(types.OperationDelegateCall).WithValue("9")
	out, err := AggregateTransactions([]types.SafeTransaction{in}, "0xms")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAggregateEmptyIsInvalid(t *testing.T) {
	_, err := AggregateTransactions(nil, "0xms")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestAggregatePadsAndMatchesABIPack(t *testing.T) {
	multisend := "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761"
	txs := []types.SafeTransaction{
		types.NewSafeTransaction("0x1111111111111111111111111111111111111111", "0xaabbcc"),
		types.NewSafeTransaction("0x2222222222222222222222222222222222222222", "0x0102030405").WithValue("10"),
	}
	out, err := AggregateTransactions(txs, multisend)
	require.NoError(t, err)
	assert.Equal(t, multisend, out.To)
	assert.Equal(t, types.OperationDelegateCall, out.Operation)
	assert.Equal(t, "0", out.Value)

	// Build the packed payload by hand.
	var packed []byte
	packed = append(packed, 0)
	packed = append(packed, common.HexToAddress(txs[0].To).Bytes()...)
	packed = append(packed, common.LeftPadBytes(nil, 32)...)
	packed = append(packed, common.LeftPadBytes([]byte{3}, 32)...)
	packed = append(packed, 0xaa, 0xbb, 0xcc)
	packed = append(packed, 0)
	packed = append(packed, common.HexToAddress(txs[1].To).Bytes()...)
	packed = append(packed, common.LeftPadBytes([]byte{10}, 32)...)
	packed = append(packed, common.LeftPadBytes([]byte{5}, 32)...)
	packed = append(packed, 1, 2, 3, 4, 5)
	require.Len(t, packed, 2*(1+20+32+32)+8)

	parsed, err := abi.JSON(strings.NewReader(multiSendABI))
	require.NoError(t, err)
	want, err := parsed.Pack("multiSend", packed)
	require.NoError(t, err)
	assert.Equal(t, "0x"+hex.EncodeToString(want), out.Data)

	raw := common.FromHex(out.Data)
	assert.Equal(t, "8d80ff0a", hex.EncodeToString(raw[:4]))
	body := raw[4:]
	assert.Zero(t, len(body)%32, "payload must be word aligned")
	tail := body[64+len(packed):]
	assert.Equal(t, make([]byte, len(tail)), tail, "padding must be zero bytes")
}

func TestAggregateKeepsPerCallOperation(t *testing.T) {
	txs := []types.SafeTransaction{
		types.NewSafeTransaction("0x01", "0x").WithOperation(types.OperationDelegateCall),
		types.NewSafeTransaction("0x02", ""),
	}
	out, err := AggregateTransactions(txs, "0xms")
	require.NoError(t, err)
	raw := common.FromHex(out.Data)
	packed := raw[4+64:]
	assert.Equal(t, byte(1), packed[0])
	assert.Equal(t, byte(0), packed[1+20+32+32])
}

func TestAggregateRejectsBadHex(t *testing.T) {
	txs := []types.SafeTransaction{
		types.NewSafeTransaction("0x01", "0x0"),
		types.NewSafeTransaction("0x02", "0x"),
	}
	_, err := AggregateTransactions(txs, "0xms")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

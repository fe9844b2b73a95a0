package relayer

import (
	"encoding/hex"
	"strings"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/abienc"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MultiSendSelector is multiSend(bytes).
const MultiSendSelector = "8d80ff0a"

// AggregateTransactions packs txs into a single delegatecall to the MultiSend
// contract. A single transaction is returned unchanged.
//
// Each call is packed as operation(1) || to(20) || value(32) || len(32) || data,
// with no padding between calls; the whole payload is then ABI-encoded as
// multiSend(bytes).
func AggregateTransactions(txs []types.SafeTransaction, multisend string) (types.SafeTransaction, error) {
	switch len(txs) {
	case 0:
		return types.SafeTransaction{}, invalidParam("no transactions to aggregate")
	case 1:
		return txs[0], nil
	}

	var packed []byte
	for i, tx := range txs {
		data, err := decodeCallData(tx.Data)
		if err != nil {
			return types.SafeTransaction{}, invalidParam("transaction %d: %v", i, err)
		}
		packed = append(packed, byte(tx.Operation))
		packed = append(packed, common.HexToAddress(tx.To).Bytes()...)
		packed = append(packed, abienc.Uint256StringWord(tx.Value).Bytes()...)
		packed = append(packed, abienc.Uint64Word(uint64(len(data))).Bytes()...)
		packed = append(packed, data...)
	}

	body := abienc.Concat(
		abienc.Uint64Word(abienc.WordSize),
		abienc.Uint64Word(uint64(len(packed))),
	)
	body = append(body, abienc.PadRight(packed)...)

	return types.SafeTransaction{
		To:        multisend,
		Operation: types.OperationDelegateCall,
		Data:      "0x" + MultiSendSelector + hex.EncodeToString(body),
		Value:     "0",
	}, nil
}

// decodeCallData accepts hex with or without 0x; "" and "0x" are empty calls.
func decodeCallData(data string) ([]byte, error) {
	data = strings.TrimSpace(data)
	if data == "" || data == "0x" {
		return []byte{}, nil
	}
	if !strings.HasPrefix(data, "0x") && !strings.HasPrefix(data, "0X") {
		data = "0x" + data
	}
	return hexutil.Decode(data)
}

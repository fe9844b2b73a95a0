package ctf

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ABI covers the CTF and ERC-20 methods this package encodes.
const ABI = `[
	{
		"inputs": [
			{"name": "collateralToken", "type": "address"},
			{"name": "parentCollectionId", "type": "bytes32"},
			{"name": "conditionId", "type": "bytes32"},
			{"name": "partition", "type": "uint256[]"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "splitPosition",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "collateralToken", "type": "address"},
			{"name": "parentCollectionId", "type": "bytes32"},
			{"name": "conditionId", "type": "bytes32"},
			{"name": "partition", "type": "uint256[]"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "mergePositions",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "collateralToken", "type": "address"},
			{"name": "parentCollectionId", "type": "bytes32"},
			{"name": "conditionId", "type": "bytes32"},
			{"name": "indexSets", "type": "uint256[]"}
		],
		"name": "redeemPositions",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "operator", "type": "address"},
			{"name": "approved", "type": "bool"}
		],
		"name": "setApprovalForAll",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var (
	parsedOnce sync.Once
	parsedABI  abi.ABI
	parseErr   error
)

// ParsedABI returns the parsed ABI definition.
func ParsedABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(ABI))
	})
	return parsedABI, parseErr
}

// MethodName returns the method name for hex call data, or "" when the
// selector is not one of ours. Used to label submissions in logs.
func MethodName(data string) string {
	m, err := lookup(data)
	if err != nil {
		return ""
	}
	return m.Name
}

// decode unpacks the arguments of hex call data produced by this package.
func decode(data string) (string, []interface{}, error) {
	m, err := lookup(data)
	if err != nil {
		return "", nil, err
	}
	raw, _ := hexutil.Decode(data)
	args, err := m.Inputs.Unpack(raw[4:])
	if err != nil {
		return "", nil, errors.Wrapf(err, "unpack %s", m.Name)
	}
	return m.Name, args, nil
}

func lookup(data string) (*abi.Method, error) {
	parsed, err := ParsedABI()
	if err != nil {
		return nil, err
	}
	raw, err := hexutil.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode call data")
	}
	if len(raw) < 4 {
		return nil, errors.New("call data shorter than a selector")
	}
	return parsed.MethodById(raw[:4])
}

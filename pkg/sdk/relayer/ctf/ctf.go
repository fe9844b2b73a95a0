// Package ctf builds call data for the Conditional Token Framework and its
// collateral token: redeemPositions, splitPosition, mergePositions, approve
// and setApprovalForAll.
//
// Encoders never reject input. Malformed addresses, identifiers or amounts
// encode as zero words, see package abienc.
package ctf

import (
	"encoding/hex"
	"strings"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/abienc"
)

// Function selectors (first four bytes of keccak256 of the signature).
const (
	SelectorRedeemPositions   = "01b7037c" // redeemPositions(address,bytes32,bytes32,uint256[])
	SelectorSplitPosition     = "72ce4275" // splitPosition(address,bytes32,bytes32,uint256[],uint256)
	SelectorMergePositions    = "9e7212ad" // mergePositions(address,bytes32,bytes32,uint256[],uint256)
	SelectorApprove           = "095ea7b3" // approve(address,uint256)
	SelectorSetApprovalForAll = "a22cb465" // setApprovalForAll(address,bool)
)

// ZeroCollectionID is the parentCollectionId for top-level positions.
const ZeroCollectionID = "0x0000000000000000000000000000000000000000000000000000000000000000"

// binaryPartition is the partition used for two-outcome markets.
var binaryPartition = []uint64{1, 2}

// MaxOutcomeSlots is the number of outcome slots a uint64 index set can address.
const MaxOutcomeSlots = 64

// IndexSetForOutcome returns the CTF index set for a single outcome slot.
// Slots at or beyond MaxOutcomeSlots yield 0.
func IndexSetForOutcome(outcomeIndex uint) uint64 {
	if outcomeIndex >= MaxOutcomeSlots {
		return 0
	}
	return 1 << outcomeIndex
}

// EncodeRedeemPositions encodes
// redeemPositions(collateral, 0x0, conditionID, indexSets).
func EncodeRedeemPositions(collateral, conditionID string, indexSets []uint64) string {
	head := []abienc.Word{
		abienc.AddressWord(collateral),
		abienc.Bytes32Word(ZeroCollectionID),
		abienc.Bytes32Word(conditionID),
		abienc.Uint64Word(4 * abienc.WordSize),
	}
	return build(SelectorRedeemPositions, append(head, uintArray(indexSets)...))
}

// EncodeSplitPosition encodes
// splitPosition(collateral, 0x0, conditionID, [1, 2], amount).
func EncodeSplitPosition(collateral, conditionID, amount string) string {
	return encodePartitionCall(SelectorSplitPosition, collateral, conditionID, amount)
}

// EncodeMergePositions encodes
// mergePositions(collateral, 0x0, conditionID, [1, 2], amount).
func EncodeMergePositions(collateral, conditionID, amount string) string {
	return encodePartitionCall(SelectorMergePositions, collateral, conditionID, amount)
}

func encodePartitionCall(selector, collateral, conditionID, amount string) string {
	words := []abienc.Word{
		abienc.AddressWord(collateral),
		abienc.Bytes32Word(ZeroCollectionID),
		abienc.Bytes32Word(conditionID),
		abienc.Uint64Word(5 * abienc.WordSize),
		abienc.Uint256StringWord(amount),
	}
	return build(selector, append(words, uintArray(binaryPartition)...))
}

// EncodeApprove encodes ERC-20 approve(spender, amount).
func EncodeApprove(spender, amount string) string {
	return build(SelectorApprove, []abienc.Word{
		abienc.AddressWord(spender),
		abienc.Uint256StringWord(amount),
	})
}

// EncodeApproveMax encodes approve(spender, 2^256-1).
func EncodeApproveMax(spender string) string {
	return build(SelectorApprove, []abienc.Word{
		abienc.AddressWord(spender),
		abienc.MaxUint256Word(),
	})
}

// EncodeSetApprovalForAll encodes ERC-1155 setApprovalForAll(operator, approved).
func EncodeSetApprovalForAll(operator string, approved bool) string {
	var flag uint64
	if approved {
		flag = 1
	}
	return build(SelectorSetApprovalForAll, []abienc.Word{
		abienc.AddressWord(operator),
		abienc.Uint64Word(flag),
	})
}

func uintArray(vals []uint64) []abienc.Word {
	out := make([]abienc.Word, 0, len(vals)+1)
	out = append(out, abienc.Uint64Word(uint64(len(vals))))
	for _, v := range vals {
		out = append(out, abienc.Uint64Word(v))
	}
	return out
}

func build(selector string, words []abienc.Word) string {
	var sb strings.Builder
	sb.Grow(2 + len(selector) + len(words)*2*abienc.WordSize)
	sb.WriteString("0x")
	sb.WriteString(selector)
	sb.WriteString(hex.EncodeToString(abienc.Concat(words...)))
	return sb.String()
}

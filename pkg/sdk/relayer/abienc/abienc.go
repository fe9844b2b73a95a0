// Package abienc encodes the static ABI primitives used by relayer payloads
// (address, uint256, bytes32, uint8) into 32-byte words.
//
// Numeric input is parsed leniently: anything that is not a non-negative
// decimal integer encodes as zero. Upstream position data sometimes carries
// empty numeric strings and the relayer protocol has always treated those as 0.
package abienc

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// WordSize is the width of one ABI slot in bytes.
const WordSize = 32

// Word is a single 32-byte ABI slot.
type Word [WordSize]byte

// Hex returns the word as 64 lowercase hex characters without a 0x prefix.
func (w Word) Hex() string {
	return hex.EncodeToString(w[:])
}

// Bytes returns a copy of the word.
func (w Word) Bytes() []byte {
	out := make([]byte, WordSize)
	copy(out, w[:])
	return out
}

// AddressWord right-aligns a 20-byte address in a word.
// Input is case-insensitive; malformed hex yields the zero address.
func AddressWord(addr string) Word {
	return AddressWordFrom(common.HexToAddress(strings.TrimSpace(addr)))
}

// AddressWordFrom right-aligns an already parsed address.
func AddressWordFrom(a common.Address) Word {
	var w Word
	copy(w[WordSize-common.AddressLength:], a.Bytes())
	return w
}

// Uint256Word encodes v as a big-endian uint256. Values wider than 256 bits
// are truncated to their low 256 bits; nil and negative values encode as 0.
func Uint256Word(v *big.Int) Word {
	var w Word
	if v == nil || v.Sign() <= 0 {
		return w
	}
	u, _ := uint256.FromBig(v)
	return Word(u.Bytes32())
}

// Uint64Word encodes a native unsigned integer.
func Uint64Word(v uint64) Word {
	return Word(uint256.NewInt(v).Bytes32())
}

// Uint8Word encodes a uint8 (for example a Safe operation tag).
func Uint8Word(v uint8) Word {
	return Uint64Word(uint64(v))
}

// Uint256StringWord parses a decimal string and encodes it as uint256.
// Unparseable input encodes as zero.
func Uint256StringWord(s string) Word {
	return Uint256Word(ParseUint(s))
}

// Bytes32Word left-pads a hex identifier to 64 hex characters. Payloads longer
// than 32 bytes keep their trailing 32 bytes.
func Bytes32Word(h string) Word {
	return Word(common.HexToHash(strings.TrimSpace(h)))
}

// MaxUint256Word is the all-ones word.
func MaxUint256Word() Word {
	var w Word
	for i := range w {
		w[i] = 0xff
	}
	return w
}

// ParseUint parses a non-negative decimal integer, returning 0 for empty,
// negative or malformed input. The result is never nil.
func ParseUint(s string) *big.Int {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return new(big.Int)
	}
	return v
}

// EncodeAddress returns the 64-char hex encoding of an address word.
func EncodeAddress(addr string) string {
	return AddressWord(addr).Hex()
}

// EncodeUint256 returns the 64-char hex encoding of v.
func EncodeUint256(v *big.Int) string {
	return Uint256Word(v).Hex()
}

// EncodeUint256String returns the 64-char hex encoding of a decimal string.
func EncodeUint256String(s string) string {
	return Uint256StringWord(s).Hex()
}

// EncodeBytes32 returns the 64-char hex encoding of a 32-byte identifier.
func EncodeBytes32(h string) string {
	return Bytes32Word(h).Hex()
}

// Concat joins words into one contiguous byte slice.
func Concat(words ...Word) []byte {
	out := make([]byte, 0, len(words)*WordSize)
	for _, w := range words {
		out = append(out, w[:]...)
	}
	return out
}

// PadRight zero-pads b to the next multiple of WordSize.
func PadRight(b []byte) []byte {
	rem := len(b) % WordSize
	if rem == 0 {
		return b
	}
	return append(b, make([]byte, WordSize-rem)...)
}

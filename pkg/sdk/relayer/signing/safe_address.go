package signing

import (
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var safeInitCodeHash = common.HexToHash(types.SafeInitCodeHash)

// SafeSalt is keccak256 of the owner address left-padded to 32 bytes.
func SafeSalt(owner common.Address) common.Hash {
	return crypto.Keccak256Hash(common.LeftPadBytes(owner.Bytes(), 32))
}

// DeriveSafeAddress computes the CREATE2 address the factory deploys for owner:
// keccak256(0xff || factory || salt || initCodeHash)[12:].
func DeriveSafeAddress(owner, factory common.Address) common.Address {
	salt := SafeSalt(owner)
	buf := make([]byte, 0, 1+common.AddressLength+2*common.HashLength)
	buf = append(buf, 0xff)
	buf = append(buf, factory.Bytes()...)
	buf = append(buf, salt.Bytes()...)
	buf = append(buf, safeInitCodeHash.Bytes()...)
	return common.BytesToAddress(crypto.Keccak256(buf)[12:])
}

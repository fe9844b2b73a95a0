package signing

import (
	"math/big"

	"github.com/betbot/polyrelay/pkg/sdk/relayer/abienc"
	"github.com/betbot/polyrelay/pkg/sdk/relayer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 type strings. The factory domain carries a name; the Safe domain
// only has chainId and verifyingContract, matching the Safe contract.
const (
	FactoryDomainType = "EIP712Domain(string name,uint256 chainId,address verifyingContract)"
	SafeDomainType    = "EIP712Domain(uint256 chainId,address verifyingContract)"
	CreateProxyType   = "CreateProxy(address paymentToken,uint256 payment,address paymentReceiver)"
	SafeTxType        = "SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)"
)

var (
	factoryDomainTypeHash = crypto.Keccak256Hash([]byte(FactoryDomainType))
	safeDomainTypeHash    = crypto.Keccak256Hash([]byte(SafeDomainType))
	createProxyTypeHash   = crypto.Keccak256Hash([]byte(CreateProxyType))
	safeTxTypeHash        = crypto.Keccak256Hash([]byte(SafeTxType))
)

// SafeTx is the Safe execTransaction payload that gets signed.
type SafeTx struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      types.OperationType
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          *big.Int
}

// NewSponsoredSafeTx builds a SafeTx with all gas fields zeroed.
func NewSponsoredSafeTx(to common.Address, value *big.Int, data []byte, op types.OperationType, nonce *big.Int) SafeTx {
	return SafeTx{
		To:        to,
		Value:     value,
		Data:      data,
		Operation: op,
		Nonce:     nonce,
	}
}

// FactoryDomainSeparator hashes {name, chainId, verifyingContract=factory}.
func FactoryDomainSeparator(chainID int64, factory common.Address) common.Hash {
	return hashWords(
		abienc.Word(factoryDomainTypeHash),
		abienc.Word(crypto.Keccak256Hash([]byte(types.SafeFactoryName))),
		abienc.Uint256Word(big.NewInt(chainID)),
		abienc.AddressWordFrom(factory),
	)
}

// SafeDomainSeparator hashes {chainId, verifyingContract=safe}.
func SafeDomainSeparator(chainID int64, safe common.Address) common.Hash {
	return hashWords(
		abienc.Word(safeDomainTypeHash),
		abienc.Uint256Word(big.NewInt(chainID)),
		abienc.AddressWordFrom(safe),
	)
}

// CreateProxyStructHash hashes a CreateProxy message.
func CreateProxyStructHash(paymentToken common.Address, payment *big.Int, paymentReceiver common.Address) common.Hash {
	return hashWords(
		abienc.Word(createProxyTypeHash),
		abienc.AddressWordFrom(paymentToken),
		abienc.Uint256Word(payment),
		abienc.AddressWordFrom(paymentReceiver),
	)
}

// StructHash hashes the SafeTx. Data is hashed rather than inlined.
func (tx SafeTx) StructHash() common.Hash {
	return hashWords(
		abienc.Word(safeTxTypeHash),
		abienc.AddressWordFrom(tx.To),
		abienc.Uint256Word(tx.Value),
		abienc.Word(crypto.Keccak256Hash(tx.Data)),
		abienc.Uint8Word(uint8(tx.Operation)),
		abienc.Uint256Word(tx.SafeTxGas),
		abienc.Uint256Word(tx.BaseGas),
		abienc.Uint256Word(tx.GasPrice),
		abienc.AddressWordFrom(tx.GasToken),
		abienc.AddressWordFrom(tx.RefundReceiver),
		abienc.Uint256Word(tx.Nonce),
	)
}

// TypedDataDigest returns keccak256(0x19 0x01 || domainSeparator || structHash).
func TypedDataDigest(domainSeparator, structHash common.Hash) common.Hash {
	raw := make([]byte, 0, 2+2*common.HashLength)
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator.Bytes()...)
	raw = append(raw, structHash.Bytes()...)
	return crypto.Keccak256Hash(raw)
}

// CreateProxyDigest is the digest signed to deploy a Safe with no creation fee.
func CreateProxyDigest(chainID int64, factory common.Address) common.Hash {
	zero := common.HexToAddress(types.ZeroAddress)
	return TypedDataDigest(
		FactoryDomainSeparator(chainID, factory),
		CreateProxyStructHash(zero, new(big.Int), zero),
	)
}

// SafeTxDigest is the digest signed to execute tx from safe.
func SafeTxDigest(chainID int64, safe common.Address, tx SafeTx) common.Hash {
	return TypedDataDigest(SafeDomainSeparator(chainID, safe), tx.StructHash())
}

func hashWords(words ...abienc.Word) common.Hash {
	return crypto.Keccak256Hash(abienc.Concat(words...))
}

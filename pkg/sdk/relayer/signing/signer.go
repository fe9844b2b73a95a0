// Package signing implements the cryptographic half of the relayer pipeline:
// Safe address derivation, EIP-712 digests, Safe signature packing and
// builder HMAC headers.
package signing

import (
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
	"github.com/pkg/errors"
)

// DefaultDerivationPath is the first account of the standard Ethereum path.
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// Signer is the signing capability the relayer client consumes. SignMessage
// applies the personal-message prefix before hashing and returns a 65-byte
// r||s||v signature with v in {27, 28}.
type Signer interface {
	Address() common.Address
	SignMessage(message []byte) ([]byte, error)
}

// PrivateKeySigner signs with an in-memory secp256k1 key.
type PrivateKeySigner struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// NewPrivateKeySigner parses a hex private key with or without 0x.
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, errors.New("private key is empty")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return NewSignerFromKey(key), nil
}

// NewSignerFromKey wraps an existing key.
func NewSignerFromKey(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewMnemonicSigner derives the key at path from a BIP-39 mnemonic.
// An empty path uses DefaultDerivationPath.
func NewMnemonicSigner(mnemonic, path string) (*PrivateKeySigner, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	if mnemonic == "" {
		return nil, errors.New("mnemonic is empty")
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultDerivationPath
	}
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}
	dp, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid derivation path %q", path)
	}
	account, err := wallet.Derive(dp, false)
	if err != nil {
		return nil, errors.Wrap(err, "derive account")
	}
	key, err := wallet.PrivateKey(account)
	if err != nil {
		return nil, errors.Wrap(err, "derive private key")
	}
	return NewSignerFromKey(key), nil
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.addr
}

// SignMessage signs keccak256("\x19Ethereum Signed Message:\n" + len + message).
func (s *PrivateKeySigner) SignMessage(message []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(message), s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

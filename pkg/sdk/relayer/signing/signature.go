package signing

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// AdjustSafeSignatureV maps the recovery byte of a personal-message signature
// to the Safe "eth_sign" signature type (v > 30).
func AdjustSafeSignatureV(v byte) byte {
	switch v {
	case 0, 27:
		return 31
	case 1, 28:
		return 32
	default:
		return v + 4
	}
}

// SignSafeDigest personal-signs digest and returns the 0x-prefixed r||s||v
// signature with v remapped for Safe verification.
func SignSafeDigest(signer Signer, digest common.Hash) (string, error) {
	if signer == nil {
		return "", errors.New("signer is nil")
	}
	sig, err := signer.SignMessage(digest.Bytes())
	if err != nil {
		return "", errors.Wrap(err, "sign digest")
	}
	if len(sig) != crypto.SignatureLength {
		return "", errors.Errorf("signature length %d, want %d", len(sig), crypto.SignatureLength)
	}
	out := make([]byte, crypto.SignatureLength)
	copy(out, sig)
	out[crypto.RecoveryIDOffset] = AdjustSafeSignatureV(out[crypto.RecoveryIDOffset])
	return "0x" + hex.EncodeToString(out), nil
}

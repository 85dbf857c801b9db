package walletProvider

import (
	"crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
)

// ecdsaSigValue is the ASN.1 DER structure KMS returns from Sign.
type ecdsaSigValue struct {
	R *big.Int
	S *big.Int
}

// parseASN1Signature parses an ASN.1 DER encoded ECDSA signature into r and s values.
func parseASN1Signature(signature []byte) (*big.Int, *big.Int, error) {
	var sig ecdsaSigValue
	rest, err := asn1.Unmarshal(signature, &sig)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid DER signature: %w", err)
	}
	if len(rest) != 0 {
		return nil, nil, fmt.Errorf("trailing bytes after DER signature")
	}
	return sig.R, sig.S, nil
}

// parseKMSPublicKey extracts the secp256k1 public key from the DER-encoded
// SubjectPublicKeyInfo structure KMS returns from GetPublicKey. The
// uncompressed EC point is the trailing 65 bytes of the BIT STRING.
func parseKMSPublicKey(spki []byte) (*ecdsa.PublicKey, error) {
	if len(spki) < 65 {
		return nil, fmt.Errorf("public key too short: %d bytes", len(spki))
	}
	point := spki[len(spki)-65:]
	if point[0] != 0x04 {
		return nil, fmt.Errorf("expected uncompressed EC point")
	}
	return crypto.UnmarshalPubkey(point)
}

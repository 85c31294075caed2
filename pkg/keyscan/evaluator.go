package keyscan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // HASH160 is defined on RIPEMD-160
)

// Secp256k1CurveOrder is the order of the secp256k1 curve
var Secp256k1CurveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// MainnetP2PKHVersion is the Base58Check version byte of mainnet P2PKH addresses.
const MainnetP2PKHVersion byte = 0x00

// KeyEvaluator derives the public identifier of a candidate private key.
// Implementations must be deterministic and stateless so that a single value
// can be shared by every worker.
type KeyEvaluator interface {
	Evaluate(c Candidate) (string, error)
}

// EvaluatorFunc adapts a function to KeyEvaluator.
type EvaluatorFunc func(c Candidate) (string, error)

// Evaluate calls f(c).
func (f EvaluatorFunc) Evaluate(c Candidate) (string, error) {
	return f(c)
}

// P2PKHEvaluator derives a Base58Check P2PKH address.
type P2PKHEvaluator struct {
	Compressed bool
	Version    byte
}

// Evaluate implements KeyEvaluator.
func (e P2PKHEvaluator) Evaluate(c Candidate) (string, error) {
	pub, err := PublicKeyBytes(c.Value, e.Compressed)
	if err != nil {
		return "", err
	}
	return base58.CheckEncode(Hash160(pub), e.Version), nil
}

// Hash160Evaluator derives the lowercase hex HASH160 of the public key.
type Hash160Evaluator struct {
	Compressed bool
}

// Evaluate implements KeyEvaluator.
func (e Hash160Evaluator) Evaluate(c Candidate) (string, error) {
	pub, err := PublicKeyBytes(c.Value, e.Compressed)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(Hash160(pub)), nil
}

// NewEvaluator returns the evaluator producing identifiers in format.
func NewEvaluator(format IdentifierFormat, compressed bool) (KeyEvaluator, error) {
	switch format {
	case FormatP2PKH:
		return P2PKHEvaluator{Compressed: compressed, Version: MainnetP2PKHVersion}, nil
	case FormatHash160:
		return Hash160Evaluator{Compressed: compressed}, nil
	default:
		return nil, fmt.Errorf("unknown identifier format %q", format)
	}
}

// PublicKeyBytes serializes the secp256k1 public key of private key k.
//
// Args:
//   - k: private key, must satisfy 1 <= k < n
//   - compressed: 33-byte compressed form instead of the 65-byte uncompressed one
//
// Returns:
//   - The serialized public key, or ErrKeyOutOfRange
func PublicKeyBytes(k *big.Int, compressed bool) ([]byte, error) {
	if k == nil || k.Sign() <= 0 || k.Cmp(Secp256k1CurveOrder) >= 0 {
		return nil, fmt.Errorf("%w: %v", ErrKeyOutOfRange, k)
	}
	priv := secp256k1.PrivKeyFromBytes(k.FillBytes(make([]byte, 32)))
	pub := priv.PubKey()
	if compressed {
		return pub.SerializeCompressed(), nil
	}
	return pub.SerializeUncompressed(), nil
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

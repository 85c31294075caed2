package keyscan

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateOf(v int64) Candidate {
	return Candidate{Value: big.NewInt(v)}
}

func TestP2PKHEvaluator_KnownAddresses(t *testing.T) {
	addr, err := P2PKHEvaluator{Version: MainnetP2PKHVersion}.Evaluate(candidateOf(1))
	require.NoError(t, err)
	assert.Equal(t, "1EHNa6Q4Jz2uvNExL497mE43ikXhwF6kZm", addr)

	addr, err = P2PKHEvaluator{Compressed: true, Version: MainnetP2PKHVersion}.Evaluate(candidateOf(1))
	require.NoError(t, err)
	assert.Equal(t, "1BgGZ9tcN4rm9KBzDn7KprQz87SZ26SAMH", addr)
}

func TestHash160Evaluator_KnownHash(t *testing.T) {
	h, err := Hash160Evaluator{Compressed: true}.Evaluate(candidateOf(1))
	require.NoError(t, err)
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", h)

	h, err = Hash160Evaluator{}.Evaluate(candidateOf(1))
	require.NoError(t, err)
	assert.Equal(t, "91b24bf9f5288532960ac687abb035127b1d28a5", h)
}

func TestEvaluators_Agree(t *testing.T) {
	c := candidateOf(0x1234567)
	h, err := Hash160Evaluator{Compressed: true}.Evaluate(c)
	require.NoError(t, err)
	addr, err := P2PKHEvaluator{Compressed: true}.Evaluate(c)
	require.NoError(t, err)

	raw, err := hex.DecodeString(h)
	require.NoError(t, err)
	require.Len(t, raw, 20)
	assert.NoError(t, ValidateTarget(addr, FormatP2PKH))
	assert.NoError(t, ValidateTarget(h, FormatHash160))
}

func TestPublicKeyBytes_OutOfRange(t *testing.T) {
	for _, k := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5), new(big.Int).Set(Secp256k1CurveOrder)} {
		_, err := PublicKeyBytes(k, true)
		assert.ErrorIs(t, err, ErrKeyOutOfRange)
	}

	last := new(big.Int).Sub(Secp256k1CurveOrder, big.NewInt(1))
	pub, err := PublicKeyBytes(last, false)
	require.NoError(t, err)
	assert.Len(t, pub, 65)
}

func TestNewEvaluator(t *testing.T) {
	e, err := NewEvaluator(FormatHash160, true)
	require.NoError(t, err)
	assert.Equal(t, Hash160Evaluator{Compressed: true}, e)

	e, err = NewEvaluator(FormatP2PKH, false)
	require.NoError(t, err)
	assert.Equal(t, P2PKHEvaluator{Version: MainnetP2PKHVersion}, e)

	_, err = NewEvaluator("wif", false)
	require.Error(t, err)
}

package manifest

import (
	"crypto/ed25519"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignatureValid(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	payload := []byte(`{"source":"test"}`)
	sig := ed25519.Sign(priv, payload)

	trust := TrustSet{"signer-a": pub}
	err = VerifySignature(payload, base64.StdEncoding.EncodeToString(sig), trust)
	assert.NoError(t, err)
}

func TestVerifySignatureMultiKeyDisjunction(t *testing.T) {
	_, privWrong, _ := ed25519.GenerateKey(nil)
	pubRight, privRight, _ := ed25519.GenerateKey(nil)
	pubWrong, _, _ := ed25519.GenerateKey(nil)
	_ = privWrong

	payload := []byte(`{"source":"test"}`)
	sig := ed25519.Sign(privRight, payload)

	trust := TrustSet{"wrong": pubWrong, "right": pubRight}
	err := VerifySignature(payload, base64.StdEncoding.EncodeToString(sig), trust)
	assert.NoError(t, err)
}

func TestVerifySignatureMissingIsHardFailureWhenTrustConfigured(t *testing.T) {
	pub, _, _ := ed25519.GenerateKey(nil)
	trust := TrustSet{"signer-a": pub}
	err := VerifySignature([]byte("payload"), "", trust)
	assert.Error(t, err)
}

func TestVerifySignatureSkippedWhenNoTrustConfigured(t *testing.T) {
	err := VerifySignature([]byte("payload"), "", TrustSet{})
	assert.NoError(t, err)
}

func TestVerifyDigest(t *testing.T) {
	data := []byte("hello world")
	correct := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

	assert.True(t, VerifyDigest(data, correct))
	assert.True(t, VerifyDigest(data, "B94D27B9934D3E08A52E52D7DA7DABFAC484EFE37A5380EE9088F7ACE2EFCDE9"))
	assert.False(t, VerifyDigest(data, "0000000000000000000000000000000000000000000000000000000000000"))
}

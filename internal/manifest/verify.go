package manifest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// TrustSet is the configured set of trusted Ed25519 public keys, keyed by
// signer identifier, loaded from TRUSTED_SIGNERS (spec.md §6).
type TrustSet map[string]ed25519.PublicKey

// ParseTrustSet parses a comma-separated "signer=base64key" list, the
// format of the TRUSTED_SIGNERS environment variable. An entry with no
// "=" is treated as an anonymous key (usable when the manifest omits a
// signer id).
func ParseTrustSet(raw string) (TrustSet, error) {
	set := make(TrustSet)
	if strings.TrimSpace(raw) == "" {
		return set, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		signer, encoded, found := strings.Cut(part, "=")
		if !found {
			signer, encoded = "", part
		}
		key, err := decodeEd25519PublicKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("trusted signer %q: %w", signer, err)
		}
		set[signer] = key
	}
	return set, nil
}

func decodeEd25519PublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 public key: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key has wrong length %d, want %d", len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// VerifySignature checks the manifest's detached Ed25519 signature against
// every key in trust (a disjunction — any trusted key suffices). An empty
// trust set means signature checking is not configured, in which case a
// missing signature is permitted; a non-empty trust set makes a missing
// signature a hard failure (spec.md §4.3).
func VerifySignature(canon []byte, signatureB64 string, trust TrustSet) error {
	if len(trust) == 0 {
		return nil
	}
	if signatureB64 == "" {
		return fmt.Errorf("manifest signature missing but trust set is configured")
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	for _, key := range trust {
		if ed25519.Verify(key, canon, sig) {
			return nil
		}
	}
	return fmt.Errorf("signature did not verify against any trusted key")
}

// VerifyDigest reports whether the sha256 hex digest of data matches want
// (case-insensitive), the artifact integrity check from spec.md §4.3.
func VerifyDigest(data []byte, want string) bool {
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	return strings.EqualFold(got, want)
}

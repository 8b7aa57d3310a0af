package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyWebhookSignature checks that the hex HMAC-SHA256 digest of the raw
// request body, keyed with the shared webhook secret, matches the signature
// header value. The digest is computed over the exact bytes received, never a
// re-serialized form. Returns false when the header or secret is empty.
func VerifyWebhookSignature(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	expected := hex.EncodeToString(h.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

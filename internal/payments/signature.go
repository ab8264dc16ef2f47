package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	pkgerrors "github.com/ismetkarakus/coziyoo-v2-sub000/pkg/errors"
)

// SignatureHeader carries the provider's hex HMAC over the raw request body.
const SignatureHeader = "x-provider-signature"

// ComputeSignature returns the hex HMAC-SHA256 of body under secret.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the provided header value against the expected HMAC
// in constant time. The payload is never echoed back on failure.
func VerifySignature(secret string, body []byte, provided string) error {
	if provided == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "signature header missing")
	}
	expected := ComputeSignature(secret, body)
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return pkgerrors.New(pkgerrors.CodeInvalidSignature, "signature mismatch")
	}
	return nil
}

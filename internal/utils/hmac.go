package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignHMAC returns the base64 HMAC-SHA256 of message keyed with secret
func SignHMAC(message, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// VerifyHMAC reports whether signature matches message under secret.
// The comparison runs in constant time.
func VerifyHMAC(message, signature, secret string) bool {
	expected, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(message))
	return hmac.Equal(expected, h.Sum(nil))
}

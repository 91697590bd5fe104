package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

func hmacSum(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignHMAC returns the lowercase hex HMAC-SHA256 of body, sent to receivers
// in the X-Signature header.
func SignHMAC(secret string, body []byte) string {
	return hex.EncodeToString(hmacSum(secret, body))
}

// VerifyHMAC reports whether provided is a valid signature over body.
// Comparison is constant time.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	b, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(hmacSum(secret, body), b)
}

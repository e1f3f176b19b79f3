package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const (
	// hookshotUserAgentPrefix is the User-Agent prefix GitHub sends on
	// webhook deliveries.
	hookshotUserAgentPrefix = "GitHub-Hookshot/"

	// signatureHeader carries "sha256=<hex HMAC-SHA256(secret, body)>".
	signatureHeader = "X-Hub-Signature-256"

	signaturePrefix = "sha256="
)

// trustedOrigin reports whether a webhook delivery comes from GitHub.
// The User-Agent check alone is spoofable, so when a secret is configured
// the body signature must verify as well.
func trustedOrigin(r *http.Request, body []byte, secret string) bool {
	if !strings.HasPrefix(r.UserAgent(), hookshotUserAgentPrefix) {
		return false
	}
	if secret == "" {
		return true
	}
	return validSignature(r.Header.Get(signatureHeader), body, secret)
}

// validSignature checks header against the HMAC-SHA256 of body.
func validSignature(header string, body []byte, secret string) bool {
	hexSig, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return false
	}
	return hmac.Equal(got, bodyMAC(body, secret))
}

// sign returns the X-Hub-Signature-256 value for body under secret.
func sign(body []byte, secret string) string {
	return signaturePrefix + hex.EncodeToString(bodyMAC(body, secret))
}

func bodyMAC(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

// Package webhook authenticates and filters incoming repository push
// notifications before they may trigger a deployment.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Gatekeeper decides whether a webhook delivery is authentic and whether the
// event it carries should start a deployment.
type Gatekeeper struct {
	secret            []byte
	protectedBranches []string
}

func NewGatekeeper(secret []byte, protectedBranches []string) *Gatekeeper {
	return &Gatekeeper{secret: secret, protectedBranches: protectedBranches}
}

// VerifySignature checks the delivery signature header against the HMAC-SHA256
// of the raw request body. The header must be "sha256=" followed by the
// lowercase hex digest. The comparison is constant-time; a length mismatch
// fails before any byte comparison.
func (g *Gatekeeper) VerifySignature(payload []byte, signatureHeader string) bool {
	if !strings.HasPrefix(signatureHeader, signaturePrefix) {
		return false
	}

	got, err := hex.DecodeString(signatureHeader[len(signaturePrefix):])
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, g.secret)
	mac.Write(payload)
	want := mac.Sum(nil)

	if len(got) != len(want) {
		return false
	}
	return hmac.Equal(got, want)
}

// ShouldDeploy reports whether the event warrants a deployment: only push
// events targeting one of the protected branch refs qualify.
func (g *Gatekeeper) ShouldDeploy(eventType, ref string) bool {
	if eventType != "push" {
		return false
	}
	for _, b := range g.protectedBranches {
		if ref == b {
			return true
		}
	}
	return false
}

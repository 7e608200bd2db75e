// Package hrc bridges hardware-rooted confirmations into the kernel.
// Confirmer devices sign short-lived EdDSA JWTs; this package verifies them
// and distills the claim into the typed HRCToken the lease manager consumes.
// The lease manager itself never sees a JWT.
package hrc

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ssbking/personal-digital-authority/internal/model"
)

// Claims extends jwt.RegisteredClaims with the confirmation payload. The
// task_id claim binds a confirmation to exactly one task.
type Claims struct {
	jwt.RegisteredClaims
	TaskID    string `json:"task_id"`
	Confirmed bool   `json:"confirmed"`
}

// Verifier validates confirmer-device JWTs against the device's public key.
type Verifier struct {
	pub ed25519.PublicKey
}

// NewVerifier wraps the confirmer device's Ed25519 public key.
func NewVerifier(pub ed25519.PublicKey) *Verifier {
	return &Verifier{pub: pub}
}

// Parse verifies token and returns the confirmation for taskID. A
// confirmation for a different task, a bad signature, or a non-EdDSA
// algorithm all fail; there is no partial acceptance.
func (v *Verifier) Parse(token, taskID string) (model.HRCToken, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("hrc: unexpected signing method %v", t.Header["alg"])
		}
		return v.pub, nil
	})
	if err != nil {
		return model.HRCToken{}, fmt.Errorf("hrc: parse token: %w", err)
	}
	if !parsed.Valid {
		return model.HRCToken{}, fmt.Errorf("hrc: token is not valid")
	}
	if claims.TaskID != taskID {
		return model.HRCToken{}, fmt.Errorf("hrc: confirmation is for task %q, not %q", claims.TaskID, taskID)
	}
	if claims.IssuedAt == nil {
		return model.HRCToken{}, fmt.Errorf("hrc: token has no issued_at")
	}
	return model.HRCToken{
		Confirmed:   claims.Confirmed,
		ConfirmedAt: claims.IssuedAt.Time.UnixMilli(),
	}, nil
}

// Issue signs a confirmation token with the confirmer device's private key.
// Lives here so hosts and tests share one token shape.
func Issue(priv ed25519.PrivateKey, taskID string, confirmed bool, at time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "pda-confirmer",
			IssuedAt: jwt.NewNumericDate(at),
		},
		TaskID:    taskID,
		Confirmed: confirmed,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	if err != nil {
		return "", fmt.Errorf("hrc: sign token: %w", err)
	}
	return signed, nil
}

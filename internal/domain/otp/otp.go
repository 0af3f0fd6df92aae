// Package otp defines the single-use OTP contract used by the
// verification workflow (seller OTP) and the settlement orchestrator
// (buyer and seller OTPs). Codes expire, and repeated failures lock
// the challenge. Independent of the general auth service but follows
// the same contract.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// Purpose namespaces challenge keys so a settlement OTP can never
// satisfy a verification OTP.
type Purpose string

const (
	PurposeSellerVerification Purpose = "SELLER_VERIFICATION"
	PurposeSettlementBuyer    Purpose = "SETTLEMENT_BUYER"
	PurposeSettlementSeller   Purpose = "SETTLEMENT_SELLER"
)

// Key builds the store key for a challenge.
func Key(purpose Purpose, entityID string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, entityID)
}

// Store persists challenges with TTL and attempt tracking. The redis
// implementation lives in infrastructure.
type Store interface {
	// Put stores a code hash under key with the given TTL, replacing
	// any previous challenge.
	Put(ctx context.Context, key, codeHash string, ttl time.Duration) error
	// Get returns the stored code hash, or ok=false when the
	// challenge is missing or expired.
	Get(ctx context.Context, key string) (codeHash string, ok bool, err error)
	// Delete consumes the challenge.
	Delete(ctx context.Context, key string) error
	// RegisterFailure increments the attempt counter and locks the
	// challenge for lockFor once maxAttempts is reached. Returns
	// whether the challenge is now locked.
	RegisterFailure(ctx context.Context, key string, maxAttempts int, lockFor time.Duration) (locked bool, err error)
	// Locked reports whether the challenge is locked out.
	Locked(ctx context.Context, key string) (bool, error)
}

// GenerateCode returns a 6-digit numeric code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashCode returns the hex SHA-256 of a code; only hashes are stored.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

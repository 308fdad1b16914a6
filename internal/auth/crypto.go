package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"

	"gamepanel/internal/constants"
)

// HashPassword hashes a plaintext password with bcrypt at the given cost.
// A cost outside bcrypt's range falls back to constants.AuthBcryptCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = constants.AuthBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against a bcrypt hash.
// Returns nil on success.
func VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck runs one bcrypt comparison against a throwaway hash so
// that a login for an unknown username costs the same as a wrong password.
func burnPasswordCheck(password string, cost int) {
	dummyHashOnce.Do(func() {
		h, err := HashPassword("gamepanel-dummy-password", cost)
		if err == nil {
			dummyHash = h
		}
	})
	if dummyHash != "" {
		VerifyPassword(password, dummyHash)
	}
}

// HashTicketID computes the BLAKE3 digest under which a ticket is stored.
// The plaintext ticket id is never kept in memory past Issue.
func HashTicketID(id string) string {
	sum := blake3.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short BLAKE3 fingerprint of a secret, safe to log.
func Fingerprint(secret []byte) string {
	sum := blake3.Sum256(secret)
	return hex.EncodeToString(sum[:4])
}

// RandomHex returns 2*n hex characters from n bytes of crypto/rand output.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GeneratePassword creates a cryptographically random password for bootstrap accounts.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#%&*"
	charsetLen := big.NewInt(int64(len(charset)))

	password := make([]byte, constants.AuthPasswordGenLength)
	for i := range password {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}
	return string(password), nil
}

// LogPrefix returns the first few characters of a token or ticket for logging.
func LogPrefix(s string) string {
	if len(s) <= constants.TicketLogPrefixLength {
		return s
	}
	return s[:constants.TicketLogPrefixLength]
}

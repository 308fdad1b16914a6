package auth

import (
	"fmt"
	"strings"

	"gamepanel/internal/constants"
	"gamepanel/internal/logger"
)

// minDistinctSecretBytes rejects long but trivially repetitive secrets.
const minDistinctSecretBytes = 8

// CheckSecret reports whether secret is fit to sign tokens. It returns an
// error wrapping ErrConfigurationInsecure for an absent, short, repetitive or
// well-known value.
func CheckSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: token secret is not set", ErrConfigurationInsecure)
	}
	if isWeak(secret, constants.WeakSecrets) {
		return fmt.Errorf("%w: token secret is a known default", ErrConfigurationInsecure)
	}
	if len(secret) < constants.MinTokenSecretBytes {
		return fmt.Errorf("%w: token secret must be at least %d bytes", ErrConfigurationInsecure, constants.MinTokenSecretBytes)
	}
	distinct := make(map[byte]struct{})
	for i := 0; i < len(secret); i++ {
		distinct[secret[i]] = struct{}{}
	}
	if len(distinct) < minDistinctSecretBytes {
		return fmt.Errorf("%w: token secret has too little variety", ErrConfigurationInsecure)
	}
	return nil
}

// CheckInitialPassword rejects default credentials for the bootstrap account.
// An empty password is fine: one is generated.
func CheckInitialPassword(password string) error {
	if password == "" {
		return nil
	}
	if isWeak(password, constants.WeakPasswords) {
		return fmt.Errorf("%w: initial admin password is a known default", ErrConfigurationInsecure)
	}
	if err := ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: initial admin password: %v", ErrConfigurationInsecure, err)
	}
	return nil
}

// ResolveSecret turns the configured secret into signing key bytes.
// In strict mode any weakness is fatal. Otherwise it is logged, and an absent
// secret is replaced by a random per-process one, so tokens die at restart.
func ResolveSecret(configured string, strict bool, log *logger.Logger) ([]byte, error) {
	err := CheckSecret(configured)
	if err == nil {
		log.Info("Auth: token secret loaded (fingerprint %s)", Fingerprint([]byte(configured)))
		return []byte(configured), nil
	}
	if strict {
		return nil, err
	}

	log.Warn("Auth: %v", err)
	if configured != "" {
		log.Warn("Auth: continuing with the weak secret because strict security is disabled")
		return []byte(configured), nil
	}

	generated, genErr := RandomHex(constants.MinTokenSecretBytes)
	if genErr != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", genErr)
	}
	log.Warn("Auth: using a random per-process token secret; tokens will not survive a restart")
	return []byte(generated), nil
}

func isWeak(value string, known []string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, k := range known {
		if v == k {
			return true
		}
	}
	return false
}

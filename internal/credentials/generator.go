// Package credentials generates passwords and keys and persists the per-entity
// credential bundles written while a dataspace or connector is provisioned.
package credentials

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	specialChars      = "!@_^*"

	// MinPasswordLength is the shortest password GeneratePassword accepts.
	MinPasswordLength = 16
)

// GeneratePassword returns a random password drawn from [A-Za-z0-9!@_^*]. The
// first character is always a letter and the result holds at least one
// uppercase letter, one digit and one special character. Candidates that do not
// satisfy the rule are discarded and redrawn.
func GeneratePassword(length int) (string, error) {
	if length < MinPasswordLength {
		return "", apperrors.Wrapf(
			apperrors.ErrInvalidInput,
			"password length must be at least %d",
			MinPasswordLength,
		)
	}

	for {
		candidate, err := randomString(alphanumericChars+specialChars, length)
		if err != nil {
			return "", err
		}
		if isStrongPassword(candidate) {
			return candidate, nil
		}
	}
}

// GenerateKey returns the standard base64 encoding of length random
// alphanumeric characters.
func GenerateKey(length int) (string, error) {
	raw, err := GenerateObjectStoreKey(length)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// GenerateObjectStoreKey returns length random alphanumeric characters.
func GenerateObjectStoreKey(length int) (string, error) {
	if length < 1 {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "key length must be at least 1")
	}
	return randomString(alphanumericChars, length)
}

// WebPortalSecrets generates the secrets consumed by the web portal.
func WebPortalSecrets() (map[string]string, error) {
	appKeys := make([]string, 4)
	for i := range appKeys {
		key, err := GenerateKey(16)
		if err != nil {
			return nil, err
		}
		appKeys[i] = key
	}

	secrets := map[string]string{"STRAPI_APP_KEYS": strings.Join(appKeys, ",")}
	for _, name := range []string{
		"STRAPI_ADMIN_JWT_SECRET",
		"STRAPI_JWT_SECRET",
		"STRAPI_API_TOKEN_SALT",
		"STRAPI_TRANSFER_TOKEN_SALT",
	} {
		key, err := GenerateKey(16)
		if err != nil {
			return nil, err
		}
		secrets[name] = key
	}
	return secrets, nil
}

func randomString(alphabet string, length int) (string, error) {
	out := make([]byte, length)
	charsLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, charsLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

func isStrongPassword(p string) bool {
	if p == "" || !isLetter(p[0]) {
		return false
	}
	var upper, digit, special bool
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(specialChars, c) >= 0:
			special = true
		}
	}
	return upper && digit && special
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

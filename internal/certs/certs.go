// Package certs generates the self-signed identity certificate of a connector:
// a PEM pair for Keycloak and Vault, and a PKCS#12 keystore sealed with the
// password recorded in the credentials bundle.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"software.sslmate.com/src/go-pkcs12"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

const (
	keyBits = 2048

	// DefaultValidity is how long generated certificates stay valid.
	DefaultValidity = 5 * 365 * 24 * time.Hour
)

// Pair locates the files of a connector identity on disk.
type Pair struct {
	CertPath  string
	KeyPath   string
	StorePath string
}

// Paths returns {dir}/{name}-public.crt, {dir}/{name}-private.key and {dir}/{name}-store.p12.
func Paths(dir, name string) Pair {
	return Pair{
		CertPath:  filepath.Join(dir, name+"-public.crt"),
		KeyPath:   filepath.Join(dir, name+"-private.key"),
		StorePath: filepath.Join(dir, name+"-store.p12"),
	}
}

// Generate writes a self-signed RSA certificate for name, its PKCS#8 private
// key and a PKCS#12 keystore holding both, encrypted with password. Existing
// files are replaced.
func Generate(dir, name, password string, validity time.Duration) (Pair, error) {
	if password == "" {
		return Pair{}, apperrors.Wrap(apperrors.ErrInvalidInput, "keystore password is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Pair{}, fmt.Errorf("failed to create certificates directory: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial := uuid.New()
	now := time.Now().UTC()
	template := &x509.Certificate{
		SerialNumber: new(big.Int).SetBytes(serial[:]),
		Subject: pkix.Name{
			CommonName:   name,
			Organization: []string{"INESData"},
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validity),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to create certificate: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to encode private key: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to parse generated certificate: %w", err)
	}
	store, err := pkcs12.Modern.Encode(key, cert, nil, password)
	if err != nil {
		return Pair{}, fmt.Errorf("failed to encode keystore: %w", err)
	}

	pair := Paths(dir, name)
	if err := writePEM(pair.CertPath, "CERTIFICATE", der, 0o644); err != nil {
		return Pair{}, err
	}
	if err := writePEM(pair.KeyPath, "PRIVATE KEY", keyDER, 0o600); err != nil {
		return Pair{}, err
	}
	if err := os.WriteFile(pair.StorePath, store, 0o600); err != nil {
		return Pair{}, fmt.Errorf("failed to write %s: %w", filepath.Base(pair.StorePath), err)
	}
	return pair, nil
}

// Load reads the PEM contents of a pair.
func Load(pair Pair) (cert []byte, key []byte, err error) {
	cert, err = os.ReadFile(pair.CertPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read certificate: %w", err)
	}
	key, err = os.ReadFile(pair.KeyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return cert, key, nil
}

func writePEM(path, blockType string, der []byte, mode os.FileMode) error {
	body := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, body, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Issuer generates pairs with a fixed validity.
type Issuer struct {
	Validity time.Duration
}

// Issue generates the identity of name in dir, sealing the keystore with password.
func (i Issuer) Issue(dir, name, password string) (Pair, error) {
	validity := i.Validity
	if validity <= 0 {
		validity = DefaultValidity
	}
	return Generate(dir, name, password, validity)
}

// OpenStore decodes the keystore of pair with password.
func OpenStore(pair Pair, password string) (any, *x509.Certificate, error) {
	body, err := os.ReadFile(pair.StorePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read keystore: %w", err)
	}
	key, cert, err := pkcs12.Decode(body, password)
	if err != nil {
		return nil, nil, apperrors.Wrapf(apperrors.ErrUnauthorized, "failed to open keystore: %v", err)
	}
	return key, cert, nil
}

// Read returns the PEM contents of pair.
func (Issuer) Read(pair Pair) ([]byte, []byte, error) {
	return Load(pair)
}

// Remove deletes the files of pair, ignoring files that are already gone.
func (Issuer) Remove(pair Pair) error {
	var errs []error
	for _, path := range []string{pair.CertPath, pair.KeyPath, pair.StorePath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

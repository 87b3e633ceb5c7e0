package certs

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

const storePassword = "Kx9!storePassw0rd"

func TestPaths(t *testing.T) {
	pair := Paths("deployments/DEV/demo/certs", "conn-a")
	assert.Equal(t, "deployments/DEV/demo/certs/conn-a-public.crt", pair.CertPath)
	assert.Equal(t, "deployments/DEV/demo/certs/conn-a-private.key", pair.KeyPath)
	assert.Equal(t, "deployments/DEV/demo/certs/conn-a-store.p12", pair.StorePath)
}

func TestGenerate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	pair, err := Generate(dir, "conn-a", storePassword, 24*time.Hour)
	require.NoError(t, err)

	certPEM, keyPEM, err := Load(pair)
	require.NoError(t, err)

	certBlock, _ := pem.Decode(certPEM)
	require.NotNil(t, certBlock)
	assert.Equal(t, "CERTIFICATE", certBlock.Type)

	cert, err := x509.ParseCertificate(certBlock.Bytes)
	require.NoError(t, err)
	assert.Equal(t, "conn-a", cert.Subject.CommonName)
	assert.NoError(t, cert.CheckSignatureFrom(cert))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), cert.NotAfter, time.Minute)

	keyBlock, _ := pem.Decode(keyPEM)
	require.NotNil(t, keyBlock)
	assert.Equal(t, "PRIVATE KEY", keyBlock.Type)

	parsed, err := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
	require.NoError(t, err)
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, 2048, rsaKey.N.BitLen())
	assert.True(t, rsaKey.PublicKey.Equal(cert.PublicKey))

	info, err := os.Stat(pair.KeyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGenerate_UniqueSerials(t *testing.T) {
	dir := t.TempDir()
	first, err := Generate(dir, "a", storePassword, time.Hour)
	require.NoError(t, err)
	second, err := Generate(dir, "b", storePassword, time.Hour)
	require.NoError(t, err)

	parse := func(p Pair) *x509.Certificate {
		body, _, err := Load(p)
		require.NoError(t, err)
		block, _ := pem.Decode(body)
		cert, err := x509.ParseCertificate(block.Bytes)
		require.NoError(t, err)
		return cert
	}
	assert.NotEqual(t, parse(first).SerialNumber, parse(second).SerialNumber)
}

func TestLoad_Missing(t *testing.T) {
	_, _, err := Load(Paths(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read certificate")
}

func TestIssuer(t *testing.T) {
	dir := t.TempDir()
	issuer := Issuer{}

	pair, err := issuer.Issue(dir, "conn-a", storePassword)
	require.NoError(t, err)

	cert, key, err := issuer.Read(pair)
	require.NoError(t, err)
	assert.Contains(t, string(cert), "BEGIN CERTIFICATE")
	assert.Contains(t, string(key), "BEGIN PRIVATE KEY")

	require.NoError(t, issuer.Remove(pair))
	assert.NoFileExists(t, pair.CertPath)
	assert.NoFileExists(t, pair.KeyPath)
	assert.NoFileExists(t, pair.StorePath)
	assert.NoError(t, issuer.Remove(pair))
}

func TestGenerate_KeystoreSealedWithPassword(t *testing.T) {
	pair, err := Generate(t.TempDir(), "conn-a", storePassword, time.Hour)
	require.NoError(t, err)

	info, err := os.Stat(pair.StorePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	key, cert, err := OpenStore(pair, storePassword)
	require.NoError(t, err)
	assert.Equal(t, "conn-a", cert.Subject.CommonName)

	certPEM, _, err := Load(pair)
	require.NoError(t, err)
	block, _ := pem.Decode(certPEM)
	require.NotNil(t, block)
	assert.Equal(t, block.Bytes, cert.Raw)

	rsaKey, ok := key.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.True(t, rsaKey.PublicKey.Equal(cert.PublicKey))

	_, _, err = OpenStore(pair, "wrong-password")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGenerate_EmptyPassword(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")

	_, err := Generate(dir, "conn-a", "", time.Hour)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoDirExists(t, dir)
}

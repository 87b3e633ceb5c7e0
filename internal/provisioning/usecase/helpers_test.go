package usecase

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	"github.com/inesdata/dataspace-tools/internal/provisioning/usecase/mocks"
	"github.com/inesdata/dataspace-tools/internal/render"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings(t *testing.T) Settings {
	t.Helper()
	return Settings{
		Root:         t.TempDir(),
		Env:          domain.EnvDEV,
		TemplateKeys: map[string]string{"KC_URL": "http://keycloak.local"},
	}
}

func writeTemplate(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func openerFor(idp *mocks.MockIdentityProvisioner) IdentityOpener {
	return func(context.Context) (IdentityProvisioner, error) {
		return idp, nil
	}
}

func failingOpener(err error) IdentityOpener {
	return func(context.Context) (IdentityProvisioner, error) {
		return nil, err
	}
}

func newRenderer() *render.Renderer {
	return render.NewRenderer(io.Discard, discardLogger())
}

func loadBundle(t *testing.T, path string) credentials.Bundle {
	t.Helper()
	bundle, err := credentials.NewStore(nil).Load(context.Background(), path)
	require.NoError(t, err)
	return bundle
}

package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// Kind distinguishes dataspace bundles from connector bundles.
type Kind string

const (
	KindDataspace Kind = "dataspace"
	KindConnector Kind = "connector"
)

// Categories recorded by the identity and secrets provisioners.
const (
	CategoryRealmManager  = "realm_manager"
	CategoryStrapiUser    = "strapi_user"
	CategoryConnectorUser = "connector_user"
	CategoryVault         = "vault"
	CategoryMinio         = "minio"
)

// Bundle maps a credential category (e.g. "database", "vault") to its fields.
type Bundle map[string]map[string]string

// BundlePath returns deployments/{env}/{dataspace}/credentials-{kind}-{name}.json under root.
func BundlePath(root, env, dataspace string, kind Kind, name string) string {
	return filepath.Join(
		root,
		"deployments",
		env,
		dataspace,
		fmt.Sprintf("credentials-%s-%s.json", kind, name),
	)
}

// RecordFunc stores one credential category of a bundle.
type RecordFunc func(ctx context.Context, category string, fields map[string]string) error

// Store reads and writes credential bundles. Bundles are whole-file documents
// rewritten on every registration; there is no locking, a single operator is
// assumed. When a Keeper is configured the file body is the sealed JSON.
type Store struct {
	keeper Keeper
}

// NewStore creates a Store. keeper may be nil for plain JSON files.
func NewStore(keeper Keeper) *Store {
	return &Store{keeper: keeper}
}

// Create writes an empty bundle at path, creating parent directories.
// An existing bundle is truncated.
func (s *Store) Create(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	return s.write(ctx, path, Bundle{})
}

// Register sets category to fields in the bundle at path, replacing any
// previous value of that category. The bundle must already exist.
func (s *Store) Register(ctx context.Context, path, category string, fields map[string]string) error {
	bundle, err := s.Load(ctx, path)
	if err != nil {
		return err
	}
	bundle[category] = fields
	return s.write(ctx, path, bundle)
}

// Load reads the full bundle at path.
func (s *Store) Load(ctx context.Context, path string) (Bundle, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "credentials file %s", path)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if s.keeper != nil {
		body, err = s.keeper.Decrypt(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("failed to open sealed credentials file %s: %w", path, err)
		}
	}

	bundle := Bundle{}
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "corrupt credentials file %s: %v", path, err)
	}
	return bundle, nil
}

func (s *Store) write(ctx context.Context, path string, bundle Bundle) error {
	body, err := json.MarshalIndent(bundle, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	if s.keeper != nil {
		body, err = s.keeper.Encrypt(ctx, body)
		if err != nil {
			return fmt.Errorf("failed to seal credentials: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary credentials file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set credentials file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close credentials file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}

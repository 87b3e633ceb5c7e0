package credentials

import (
	"context"
	"fmt"

	"gocloud.dev/secrets"

	// Keeper drivers accepted in KEEPER_URL
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper seals and opens credential bundle bodies. *secrets.Keeper implements it.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// OpenKeeper opens a keeper for keyURI. Supports base64key:// and hashivault://.
func OpenKeeper(ctx context.Context, keyURI string) (Keeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials keeper: %w", err)
	}
	return keeper, nil
}

package keycloak

import (
	"context"
	"fmt"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// The Delete* calls report deleted=false with a nil error when the object is
// already gone, so they can be retried safely.

// DeleteRealm removes a dataspace realm.
func (p *Provisioner) DeleteRealm(ctx context.Context, realm string) (bool, error) {
	if err := p.admin.GetRealm(ctx, realm); err != nil {
		return notFoundIsNoop(err, "realm", realm)
	}
	if err := p.admin.DeleteRealm(ctx, realm); err != nil {
		return false, fmt.Errorf("failed to delete realm %s: %w", realm, err)
	}
	return true, nil
}

// DeleteConnectorUser removes user-{connector}.
func (p *Provisioner) DeleteConnectorUser(ctx context.Context, realm, connector string) (bool, error) {
	username := "user-" + connector
	user, err := p.admin.FindUser(ctx, realm, username)
	if err != nil {
		return notFoundIsNoop(err, "user", username)
	}
	if err := p.admin.DeleteUser(ctx, realm, user.ID); err != nil {
		return false, fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	return true, nil
}

// DeleteConnectorClient removes the connector's confidential client.
func (p *Provisioner) DeleteConnectorClient(ctx context.Context, realm, connector string) (bool, error) {
	client, err := p.admin.FindClient(ctx, realm, connector)
	if err != nil {
		return notFoundIsNoop(err, "client", connector)
	}
	if err := p.admin.DeleteClient(ctx, realm, client.ID); err != nil {
		return false, fmt.Errorf("failed to delete client %s: %w", connector, err)
	}
	return true, nil
}

// DeleteConnectorGroup removes the connector's group.
func (p *Provisioner) DeleteConnectorGroup(ctx context.Context, realm, connector string) (bool, error) {
	group, err := p.admin.FindGroup(ctx, realm, connector)
	if err != nil {
		return notFoundIsNoop(err, "group", connector)
	}
	if err := p.admin.DeleteGroup(ctx, realm, group.ID); err != nil {
		return false, fmt.Errorf("failed to delete group %s: %w", connector, err)
	}
	return true, nil
}

// DeleteConnectorRole removes the connector's realm role.
func (p *Provisioner) DeleteConnectorRole(ctx context.Context, realm, connector string) (bool, error) {
	if _, err := p.admin.GetRealmRole(ctx, realm, connector); err != nil {
		return notFoundIsNoop(err, "role", connector)
	}
	if err := p.admin.DeleteRealmRole(ctx, realm, connector); err != nil {
		return false, fmt.Errorf("failed to delete role %s: %w", connector, err)
	}
	return true, nil
}

func notFoundIsNoop(err error, kind, name string) (bool, error) {
	if apperrors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to look up %s %s: %w", kind, name, err)
}

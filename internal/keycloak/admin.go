// Package keycloak provisions dataspace realms and connector identities on a
// Keycloak server through its admin REST API.
package keycloak

import (
	"context"
)

// Role is a realm or client role.
type Role struct {
	ID         string
	Name       string
	Attributes map[string][]string
}

// Group is a top-level realm group.
type Group struct {
	ID   string
	Name string
}

// Client is a realm client. ID is the internal id, ClientID the public one.
type Client struct {
	ID       string
	ClientID string
}

// User is a realm user.
type User struct {
	ID            string
	Username      string
	Email         string
	FirstName     string
	LastName      string
	Enabled       bool
	EmailVerified bool
}

// Admin is the subset of the Keycloak admin API used by the provisioner.
// Lookups return an error wrapping errors.ErrNotFound when the resource is absent.
type Admin interface {
	GetRealm(ctx context.Context, realm string) error
	CreateRealm(ctx context.Context, realm string) error
	DeleteRealm(ctx context.Context, realm string) error

	ListClientScopeNames(ctx context.Context, realm string) ([]string, error)
	CreateClientScope(ctx context.Context, realm string, scope map[string]any) error

	GetRealmRole(ctx context.Context, realm, name string) (*Role, error)
	CreateRealmRole(ctx context.Context, realm string, role Role) error
	DeleteRealmRole(ctx context.Context, realm, name string) error

	FindGroup(ctx context.Context, realm, name string) (*Group, error)
	CreateGroup(ctx context.Context, realm, name string) (string, error)
	DeleteGroup(ctx context.Context, realm, groupID string) error
	AddRealmRolesToGroup(ctx context.Context, realm, groupID string, roles []Role) error
	AddClientRolesToGroup(ctx context.Context, realm, idOfClient, groupID string, roles []Role) error

	FindClient(ctx context.Context, realm, clientID string) (*Client, error)
	GetClientRoles(ctx context.Context, realm, idOfClient string) ([]Role, error)
	CreateClient(ctx context.Context, realm string, client map[string]any) (string, error)
	DeleteClient(ctx context.Context, realm, idOfClient string) error
	UploadClientCertificate(ctx context.Context, realm, idOfClient, fileName string, pem []byte) error

	FindUser(ctx context.Context, realm, username string) (*User, error)
	CreateUser(ctx context.Context, realm string, user User) (string, error)
	SetPassword(ctx context.Context, realm, userID, password string) error
	DeleteUser(ctx context.Context, realm, userID string) error
	AddRealmRolesToUser(ctx context.Context, realm, userID string, roles []Role) error
	AddUserToGroup(ctx context.Context, realm, userID, groupID string) error
}

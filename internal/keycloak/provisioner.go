package keycloak

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// Outcome reports what an ensure call did.
type Outcome int

const (
	Created Outcome = iota
	AlreadyExists
)

func (o Outcome) String() string {
	if o == Created {
		return "created"
	}
	return "already exists"
}

// Provisioner creates dataspace realms and connector identities. Every ensure
// call checks for the object first so repeated runs never duplicate it.
type Provisioner struct {
	admin       Admin
	internalURL string
	out         io.Writer
	logger      *slog.Logger
}

// NewProvisioner creates a Provisioner. internalURL is the Keycloak address
// seen from inside the cluster and is used for the audience claim.
func NewProvisioner(admin Admin, internalURL string, out io.Writer, logger *slog.Logger) *Provisioner {
	return &Provisioner{admin: admin, internalURL: internalURL, out: out, logger: logger}
}

func (p *Provisioner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// EnsureDataspace provisions the realm of a dataspace with its client scopes,
// roles, manager group, manager user, public users client and portal user.
func (p *Provisioner) EnsureDataspace(ctx context.Context, realm string, record credentials.RecordFunc) error {
	p.printf("  + Creating realm %s", realm)
	if _, err := p.EnsureRealm(ctx, realm); err != nil {
		return err
	}

	for _, scope := range []map[string]any{
		audienceScopePayload(realm, p.internalURL),
		notBeforeScopePayload(),
	} {
		p.printf("  + Creating scope %q", scope["name"])
		if _, err := p.EnsureClientScope(ctx, realm, scope); err != nil {
			return err
		}
	}

	for _, role := range dataspaceRoles(realm) {
		if _, err := p.EnsureRole(ctx, realm, role); err != nil {
			return err
		}
	}

	groupName := realm + "-manager"
	if _, err := p.EnsureManagerGroup(ctx, realm, groupName); err != nil {
		return err
	}

	p.printf("    + Creating realm user %s ............", realm)
	managerName := realm + "_manager"
	managerID, password, outcome, err := p.EnsureUser(ctx, realm, managerName)
	if err != nil {
		return err
	}
	if outcome == Created {
		if err := record(ctx, credentials.CategoryRealmManager, map[string]string{"user": managerName, "passwd": password}); err != nil {
			return err
		}
		if err := p.grantRealmRole(ctx, realm, managerID, managerName, RoleDataspaceAdmin); err != nil {
			return err
		}
		if err := p.joinGroup(ctx, realm, managerID, managerName, groupName); err != nil {
			return err
		}
	}

	p.printf("  + Creating users client %q", UsersClientID)
	if _, _, err := p.EnsureClient(ctx, realm, usersClientPayload()); err != nil {
		return err
	}

	strapiName := "user-strapi-" + realm
	_, password, outcome, err = p.EnsureUser(ctx, realm, strapiName)
	if err != nil {
		return err
	}
	if outcome == Created {
		return record(ctx, credentials.CategoryStrapiUser, map[string]string{"user": strapiName, "passwd": password})
	}
	return nil
}

// EnsureConnector provisions the role, group, user and confidential client of
// a connector. certPEM is uploaded as the client's JWT signing certificate.
func (p *Provisioner) EnsureConnector(
	ctx context.Context,
	realm, connector, certFileName string,
	certPEM []byte,
	record credentials.RecordFunc,
) error {
	if _, err := p.EnsureRole(ctx, realm, ConnectorRole(connector)); err != nil {
		return err
	}
	if _, err := p.EnsureConnectorGroup(ctx, realm, connector); err != nil {
		return err
	}

	p.printf("    + Creating connector user %s ............", connector)
	username := "user-" + connector
	userID, password, outcome, err := p.EnsureUser(ctx, realm, username)
	if err != nil {
		return err
	}
	if outcome == Created {
		if err := record(ctx, credentials.CategoryConnectorUser, map[string]string{"user": username, "passwd": password}); err != nil {
			return err
		}
		if err := p.joinGroup(ctx, realm, userID, username, connector); err != nil {
			return err
		}
	}

	clientID, outcome, err := p.EnsureClient(ctx, realm, connectorClientPayload(connector))
	if err != nil {
		return err
	}
	if outcome == AlreadyExists {
		return nil
	}
	if err := p.admin.UploadClientCertificate(ctx, realm, clientID, certFileName, certPEM); err != nil {
		return fmt.Errorf("failed to upload certificate for client %s: %w", connector, err)
	}
	p.printf("    + Client secret for %s set from %s.", connector, certFileName)
	return nil
}

// EnsureRealm creates realm unless it exists.
func (p *Provisioner) EnsureRealm(ctx context.Context, realm string) (Outcome, error) {
	err := p.admin.GetRealm(ctx, realm)
	if err == nil {
		return AlreadyExists, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("failed to get realm %s: %w", realm, err)
	}
	if err := p.admin.CreateRealm(ctx, realm); err != nil {
		return 0, fmt.Errorf("failed to create realm %s: %w", realm, err)
	}
	p.logger.Info("realm created", slog.String("realm", realm))
	return Created, nil
}

// EnsureClientScope creates the client scope described by payload unless a
// scope with the same name exists.
func (p *Provisioner) EnsureClientScope(ctx context.Context, realm string, payload map[string]any) (Outcome, error) {
	name, _ := payload["name"].(string)
	names, err := p.admin.ListClientScopeNames(ctx, realm)
	if err != nil {
		return 0, fmt.Errorf("failed to list client scopes of %s: %w", realm, err)
	}
	if slices.Contains(names, name) {
		return AlreadyExists, nil
	}
	if err := p.admin.CreateClientScope(ctx, realm, payload); err != nil {
		return 0, fmt.Errorf("failed to create client scope %s: %w", name, err)
	}
	return Created, nil
}

// EnsureRole creates a realm role unless one with the same name exists.
func (p *Provisioner) EnsureRole(ctx context.Context, realm string, role Role) (Outcome, error) {
	_, err := p.admin.GetRealmRole(ctx, realm, role.Name)
	if err == nil {
		p.printf("    + Role %s already exists.", role.Name)
		return AlreadyExists, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return 0, fmt.Errorf("failed to get role %s: %w", role.Name, err)
	}
	if err := p.admin.CreateRealmRole(ctx, realm, role); err != nil {
		return 0, fmt.Errorf("failed to create role %s: %w", role.Name, err)
	}
	p.printf("    + Role %s created.", role.Name)
	return Created, nil
}

// EnsureManagerGroup creates the realm manager group with the realm-management
// roles it needs to administer users.
func (p *Provisioner) EnsureManagerGroup(ctx context.Context, realm, groupName string) (Outcome, error) {
	groupID, outcome, err := p.ensureGroup(ctx, realm, groupName)
	if err != nil {
		return 0, err
	}
	if outcome == AlreadyExists {
		p.printf("    + Manager group %s already exists.", groupName)
		return AlreadyExists, nil
	}
	p.printf("    + Manager group %s created successfully.", groupName)

	mgmt, err := p.admin.FindClient(ctx, realm, RealmManagementID)
	if err != nil {
		return 0, fmt.Errorf("failed to find %s client: %w", RealmManagementID, err)
	}
	available, err := p.admin.GetClientRoles(ctx, realm, mgmt.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list %s roles: %w", RealmManagementID, err)
	}

	var roles []Role
	for _, r := range available {
		if slices.Contains(managerClientRoles, r.Name) {
			roles = append(roles, r)
		}
	}
	if err := p.admin.AddClientRolesToGroup(ctx, realm, mgmt.ID, groupID, roles); err != nil {
		return 0, fmt.Errorf("failed to assign roles to group %s: %w", groupName, err)
	}
	p.printf("    + Manager group %s has been assigned the following roles %v", groupName, managerClientRoles)
	return Created, nil
}

// EnsureConnectorGroup creates the group of a connector, inheriting the
// connector's own role plus connector-user.
func (p *Provisioner) EnsureConnectorGroup(ctx context.Context, realm, connector string) (Outcome, error) {
	groupID, outcome, err := p.ensureGroup(ctx, realm, connector)
	if err != nil {
		return 0, err
	}
	if outcome == AlreadyExists {
		p.printf("    + Group %s already exists.", connector)
		return AlreadyExists, nil
	}
	p.printf("    + Group %s created successfully.", connector)

	for _, roleName := range []string{connector, RoleConnectorUser} {
		role, err := p.admin.GetRealmRole(ctx, realm, roleName)
		if err != nil {
			return 0, fmt.Errorf("failed to get role %s: %w", roleName, err)
		}
		if err := p.admin.AddRealmRolesToGroup(ctx, realm, groupID, []Role{*role}); err != nil {
			return 0, fmt.Errorf("failed to map role %s to group %s: %w", roleName, connector, err)
		}
		p.printf("    + Role %s mapped to group %s.", roleName, connector)
	}
	return Created, nil
}

func (p *Provisioner) ensureGroup(ctx context.Context, realm, name string) (string, Outcome, error) {
	group, err := p.admin.FindGroup(ctx, realm, name)
	if err == nil {
		return group.ID, AlreadyExists, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return "", 0, fmt.Errorf("failed to get group %s: %w", name, err)
	}
	id, err := p.admin.CreateGroup(ctx, realm, name)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create group %s: %w", name, err)
	}
	return id, Created, nil
}

// EnsureUser creates username with a generated password unless it exists.
// The password is only returned for a newly created user.
func (p *Provisioner) EnsureUser(ctx context.Context, realm, username string) (string, string, Outcome, error) {
	p.printf("    + Creating %s ............", username)
	existing, err := p.admin.FindUser(ctx, realm, username)
	if err == nil {
		p.printf("    - User %s already exists.", username)
		return existing.ID, "", AlreadyExists, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return "", "", 0, fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	password, err := credentials.GeneratePassword(credentials.MinPasswordLength)
	if err != nil {
		return "", "", 0, err
	}
	id, err := p.admin.CreateUser(ctx, realm, newUser(username))
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	p.printf("    + User %s created.", username)

	if err := p.admin.SetPassword(ctx, realm, id, password); err != nil {
		return "", "", 0, fmt.Errorf("failed to set password of user %s: %w", username, err)
	}
	return id, password, Created, nil
}

// EnsureClient creates the client described by payload unless its clientId exists.
func (p *Provisioner) EnsureClient(ctx context.Context, realm string, payload map[string]any) (string, Outcome, error) {
	clientID, _ := payload["clientId"].(string)
	existing, err := p.admin.FindClient(ctx, realm, clientID)
	if err == nil {
		p.printf("    + Client %s already exists.", clientID)
		return existing.ID, AlreadyExists, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return "", 0, fmt.Errorf("failed to look up client %s: %w", clientID, err)
	}
	id, err := p.admin.CreateClient(ctx, realm, payload)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create client %s: %w", clientID, err)
	}
	p.printf("    + Client %s created with ID %s.", clientID, id)
	return id, Created, nil
}

func (p *Provisioner) grantRealmRole(ctx context.Context, realm, userID, username, roleName string) error {
	role, err := p.admin.GetRealmRole(ctx, realm, roleName)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			p.printf("    - Role '%s' doesn't exist.", roleName)
			return nil
		}
		return fmt.Errorf("failed to get role %s: %w", roleName, err)
	}
	if err := p.admin.AddRealmRolesToUser(ctx, realm, userID, []Role{*role}); err != nil {
		return fmt.Errorf("failed to assign role %s to %s: %w", roleName, username, err)
	}
	p.printf("    + Role %s assigned to the user %s.", roleName, username)
	return nil
}

func (p *Provisioner) joinGroup(ctx context.Context, realm, userID, username, groupName string) error {
	group, err := p.admin.FindGroup(ctx, realm, groupName)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			p.printf("    - Group %s does not exist.", groupName)
			return nil
		}
		return fmt.Errorf("failed to get group %s: %w", groupName, err)
	}
	if err := p.admin.AddUserToGroup(ctx, realm, userID, group.ID); err != nil {
		return fmt.Errorf("failed to add %s to group %s: %w", username, groupName, err)
	}
	p.printf("    + Assigned user %s to group %s.", username, groupName)
	return nil
}

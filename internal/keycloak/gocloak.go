package keycloak

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/Nerzal/gocloak/v13"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// GocloakAdmin implements Admin with a gocloak client authenticated as a
// master-realm administrator. Payloads gocloak does not model (client scopes
// with custom mapper config, certificate upload) go through its resty client.
type GocloakAdmin struct {
	client  *gocloak.GoCloak
	baseURL string
	token   string
}

// NewGocloakAdmin logs in as user in the master realm of the server at baseURL.
func NewGocloakAdmin(ctx context.Context, baseURL, user, password string, tlsSkipVerify bool) (*GocloakAdmin, error) {
	client := gocloak.NewClient(baseURL)
	if tlsSkipVerify {
		client.RestyClient().SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	jwt, err := client.LoginAdmin(ctx, user, password, "master")
	if err != nil {
		return nil, fmt.Errorf("failed to obtain keycloak admin token: %w", translate(err))
	}

	return &GocloakAdmin{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   jwt.AccessToken,
	}, nil
}

func (a *GocloakAdmin) adminURL(realm string, parts ...string) string {
	return a.baseURL + "/" + path.Join(append([]string{"admin", "realms", realm}, parts...)...)
}

// GetRealm reports whether realm exists.
func (a *GocloakAdmin) GetRealm(ctx context.Context, realm string) error {
	_, err := a.client.GetRealm(ctx, a.token, realm)
	return translate(err)
}

// CreateRealm creates an enabled realm.
func (a *GocloakAdmin) CreateRealm(ctx context.Context, realm string) error {
	_, err := a.client.CreateRealm(ctx, a.token, gocloak.RealmRepresentation{
		Realm:   gocloak.StringP(realm),
		Enabled: gocloak.BoolP(true),
	})
	return translate(err)
}

// DeleteRealm removes realm.
func (a *GocloakAdmin) DeleteRealm(ctx context.Context, realm string) error {
	return translate(a.client.DeleteRealm(ctx, a.token, realm))
}

// ListClientScopeNames returns the names of every client scope in realm.
func (a *GocloakAdmin) ListClientScopeNames(ctx context.Context, realm string) ([]string, error) {
	scopes, err := a.client.GetClientScopes(ctx, a.token, realm)
	if err != nil {
		return nil, translate(err)
	}
	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		names = append(names, gocloak.PString(s.Name))
	}
	return names, nil
}

// CreateClientScope posts a raw client-scope representation.
func (a *GocloakAdmin) CreateClientScope(ctx context.Context, realm string, scope map[string]any) error {
	resp, err := a.client.GetRequestWithBearerAuth(ctx, a.token).
		SetBody(scope).
		Post(a.adminURL(realm, "client-scopes"))
	if err != nil {
		return fmt.Errorf("failed to create client scope: %w", err)
	}
	return statusError(resp.StatusCode(), resp.String())
}

// GetRealmRole returns the realm role called name.
func (a *GocloakAdmin) GetRealmRole(ctx context.Context, realm, name string) (*Role, error) {
	role, err := a.client.GetRealmRole(ctx, a.token, realm, name)
	if err != nil {
		return nil, translate(err)
	}
	return fromGocloakRole(role), nil
}

// CreateRealmRole creates a realm role.
func (a *GocloakAdmin) CreateRealmRole(ctx context.Context, realm string, role Role) error {
	payload := gocloak.Role{Name: gocloak.StringP(role.Name)}
	if len(role.Attributes) > 0 {
		attrs := role.Attributes
		payload.Attributes = &attrs
	}
	_, err := a.client.CreateRealmRole(ctx, a.token, realm, payload)
	return translate(err)
}

// DeleteRealmRole removes the realm role called name.
func (a *GocloakAdmin) DeleteRealmRole(ctx context.Context, realm, name string) error {
	return translate(a.client.DeleteRealmRole(ctx, a.token, realm, name))
}

// FindGroup returns the top-level group called name.
func (a *GocloakAdmin) FindGroup(ctx context.Context, realm, name string) (*Group, error) {
	groups, err := a.client.GetGroups(ctx, a.token, realm, gocloak.GetGroupsParams{Search: gocloak.StringP(name)})
	if err != nil {
		return nil, translate(err)
	}
	for _, g := range groups {
		if gocloak.PString(g.Name) == name {
			return &Group{ID: gocloak.PString(g.ID), Name: name}, nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "group %s", name)
}

// CreateGroup creates a top-level group and returns its id.
func (a *GocloakAdmin) CreateGroup(ctx context.Context, realm, name string) (string, error) {
	id, err := a.client.CreateGroup(ctx, a.token, realm, gocloak.Group{Name: gocloak.StringP(name)})
	return id, translate(err)
}

// DeleteGroup removes a group by id.
func (a *GocloakAdmin) DeleteGroup(ctx context.Context, realm, groupID string) error {
	return translate(a.client.DeleteGroup(ctx, a.token, realm, groupID))
}

// AddRealmRolesToGroup maps realm roles to a group.
func (a *GocloakAdmin) AddRealmRolesToGroup(ctx context.Context, realm, groupID string, roles []Role) error {
	return translate(a.client.AddRealmRoleToGroup(ctx, a.token, realm, groupID, toGocloakRoles(roles)))
}

// AddClientRolesToGroup maps client roles of idOfClient to a group.
func (a *GocloakAdmin) AddClientRolesToGroup(ctx context.Context, realm, idOfClient, groupID string, roles []Role) error {
	return translate(a.client.AddClientRolesToGroup(ctx, a.token, realm, idOfClient, groupID, toGocloakRoles(roles)))
}

// FindClient returns the client whose public id is clientID.
func (a *GocloakAdmin) FindClient(ctx context.Context, realm, clientID string) (*Client, error) {
	clients, err := a.client.GetClients(ctx, a.token, realm, gocloak.GetClientsParams{ClientID: gocloak.StringP(clientID)})
	if err != nil {
		return nil, translate(err)
	}
	for _, c := range clients {
		if gocloak.PString(c.ClientID) == clientID {
			return &Client{ID: gocloak.PString(c.ID), ClientID: clientID}, nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "client %s", clientID)
}

// GetClientRoles lists the roles defined by a client.
func (a *GocloakAdmin) GetClientRoles(ctx context.Context, realm, idOfClient string) ([]Role, error) {
	roles, err := a.client.GetClientRoles(ctx, a.token, realm, idOfClient, gocloak.GetRoleParams{})
	if err != nil {
		return nil, translate(err)
	}
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, *fromGocloakRole(r))
	}
	return out, nil
}

// CreateClient posts a raw client representation and returns the new internal id.
func (a *GocloakAdmin) CreateClient(ctx context.Context, realm string, client map[string]any) (string, error) {
	resp, err := a.client.GetRequestWithBearerAuth(ctx, a.token).
		SetBody(client).
		Post(a.adminURL(realm, "clients"))
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	if err := statusError(resp.StatusCode(), resp.String()); err != nil {
		return "", err
	}
	return path.Base(resp.Header().Get("Location")), nil
}

// DeleteClient removes a client by internal id.
func (a *GocloakAdmin) DeleteClient(ctx context.Context, realm, idOfClient string) error {
	return translate(a.client.DeleteClient(ctx, a.token, realm, idOfClient))
}

// UploadClientCertificate sets the JWT signing certificate of a client from a PEM file.
func (a *GocloakAdmin) UploadClientCertificate(
	ctx context.Context,
	realm, idOfClient, fileName string,
	pem []byte,
) error {
	resp, err := a.client.GetRequestWithBearerAuth(ctx, a.token).
		SetFormData(map[string]string{"keystoreFormat": "Certificate PEM"}).
		SetFileReader("file", fileName, bytes.NewReader(pem)).
		Post(a.adminURL(realm, "clients", idOfClient, "certificates", "jwt.credential", "upload-certificate"))
	if err != nil {
		return fmt.Errorf("failed to upload client certificate: %w", err)
	}
	return statusError(resp.StatusCode(), resp.String())
}

// FindUser returns the user whose username is exactly username.
func (a *GocloakAdmin) FindUser(ctx context.Context, realm, username string) (*User, error) {
	users, err := a.client.GetUsers(ctx, a.token, realm, gocloak.GetUsersParams{Username: gocloak.StringP(username)})
	if err != nil {
		return nil, translate(err)
	}
	for _, u := range users {
		if strings.EqualFold(gocloak.PString(u.Username), username) {
			return &User{
				ID:       gocloak.PString(u.ID),
				Username: gocloak.PString(u.Username),
				Email:    gocloak.PString(u.Email),
			}, nil
		}
	}
	return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", username)
}

// CreateUser creates a user and returns its id.
func (a *GocloakAdmin) CreateUser(ctx context.Context, realm string, user User) (string, error) {
	id, err := a.client.CreateUser(ctx, a.token, realm, gocloak.User{
		Username:      gocloak.StringP(user.Username),
		Email:         gocloak.StringP(user.Email),
		FirstName:     gocloak.StringP(user.FirstName),
		LastName:      gocloak.StringP(user.LastName),
		Enabled:       gocloak.BoolP(user.Enabled),
		EmailVerified: gocloak.BoolP(user.EmailVerified),
	})
	return id, translate(err)
}

// SetPassword sets a non-temporary password.
func (a *GocloakAdmin) SetPassword(ctx context.Context, realm, userID, password string) error {
	return translate(a.client.SetPassword(ctx, a.token, userID, realm, password, false))
}

// DeleteUser removes a user by id.
func (a *GocloakAdmin) DeleteUser(ctx context.Context, realm, userID string) error {
	return translate(a.client.DeleteUser(ctx, a.token, realm, userID))
}

// AddRealmRolesToUser maps realm roles to a user.
func (a *GocloakAdmin) AddRealmRolesToUser(ctx context.Context, realm, userID string, roles []Role) error {
	return translate(a.client.AddRealmRoleToUser(ctx, a.token, realm, userID, toGocloakRoles(roles)))
}

// AddUserToGroup adds a user to a group.
func (a *GocloakAdmin) AddUserToGroup(ctx context.Context, realm, userID, groupID string) error {
	return translate(a.client.AddUserToGroup(ctx, a.token, realm, userID, groupID))
}

func fromGocloakRole(r *gocloak.Role) *Role {
	role := &Role{ID: gocloak.PString(r.ID), Name: gocloak.PString(r.Name)}
	if r.Attributes != nil {
		role.Attributes = *r.Attributes
	}
	return role
}

func toGocloakRoles(roles []Role) []gocloak.Role {
	out := make([]gocloak.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, gocloak.Role{ID: gocloak.StringP(r.ID), Name: gocloak.StringP(r.Name)})
	}
	return out
}

// translate maps gocloak API errors onto domain errors.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *gocloak.APIError
	if apperrors.As(err, &apiErr) {
		if e := statusError(apiErr.Code, apiErr.Message); e != nil {
			return e
		}
	}
	return err
}

func statusError(code int, body string) error {
	switch {
	case code < http.StatusBadRequest:
		return nil
	case code == http.StatusNotFound:
		return apperrors.Wrap(apperrors.ErrNotFound, body)
	case code == http.StatusConflict:
		return apperrors.Wrap(apperrors.ErrConflict, body)
	case code == http.StatusUnauthorized:
		return apperrors.Wrap(apperrors.ErrUnauthorized, body)
	case code == http.StatusForbidden:
		return apperrors.Wrap(apperrors.ErrForbidden, body)
	default:
		return fmt.Errorf("keycloak returned status %d: %s", code, body)
	}
}

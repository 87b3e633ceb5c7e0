package keycloak

import (
	"context"
	"fmt"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

type fakeRealm struct {
	scopes       map[string]map[string]any
	roles        map[string]Role
	groups       map[string]Group
	groupRoles   map[string][]string
	clients      map[string]map[string]any
	clientIDs    map[string]string
	clientRoles  map[string][]Role
	certificates map[string][]byte
	users        map[string]User
	passwords    map[string]string
	userRoles    map[string][]string
	userGroups   map[string][]string
}

// fakeAdmin is an in-memory Admin.
type fakeAdmin struct {
	realms map[string]*fakeRealm
	nextID int
	calls  map[string]int
	fail   map[string]error
}

func newFakeAdmin() *fakeAdmin {
	return &fakeAdmin{
		realms: map[string]*fakeRealm{},
		calls:  map[string]int{},
		fail:   map[string]error{},
	}
}

func (f *fakeAdmin) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeAdmin) call(name string) error {
	f.calls[name]++
	return f.fail[name]
}

func (f *fakeAdmin) realm(name string) (*fakeRealm, error) {
	r, ok := f.realms[name]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "realm %s", name)
	}
	return r, nil
}

func (f *fakeAdmin) GetRealm(_ context.Context, realm string) error {
	if err := f.call("GetRealm"); err != nil {
		return err
	}
	_, err := f.realm(realm)
	return err
}

func (f *fakeAdmin) CreateRealm(_ context.Context, realm string) error {
	if err := f.call("CreateRealm"); err != nil {
		return err
	}
	mgmtID := f.id()
	f.realms[realm] = &fakeRealm{
		scopes:     map[string]map[string]any{},
		roles:      map[string]Role{},
		groups:     map[string]Group{},
		groupRoles: map[string][]string{},
		clients:    map[string]map[string]any{RealmManagementID: {"clientId": RealmManagementID}},
		clientIDs:  map[string]string{RealmManagementID: mgmtID},
		clientRoles: map[string][]Role{mgmtID: {
			{ID: "r1", Name: "view-realm"},
			{ID: "r2", Name: "view-users"},
			{ID: "r3", Name: "query-users"},
			{ID: "r4", Name: "manage-users"},
			{ID: "r5", Name: "manage-realm"},
		}},
		certificates: map[string][]byte{},
		users:        map[string]User{},
		passwords:    map[string]string{},
		userRoles:    map[string][]string{},
		userGroups:   map[string][]string{},
	}
	return nil
}

func (f *fakeAdmin) DeleteRealm(_ context.Context, realm string) error {
	if err := f.call("DeleteRealm"); err != nil {
		return err
	}
	delete(f.realms, realm)
	return nil
}

func (f *fakeAdmin) ListClientScopeNames(_ context.Context, realm string) ([]string, error) {
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	return slicesFromKeys(r.scopes), nil
}

func (f *fakeAdmin) CreateClientScope(_ context.Context, realm string, scope map[string]any) error {
	if err := f.call("CreateClientScope"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	r.scopes[scope["name"].(string)] = scope
	return nil
}

func (f *fakeAdmin) GetRealmRole(_ context.Context, realm, name string) (*Role, error) {
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	role, ok := r.roles[name]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "role %s", name)
	}
	return &role, nil
}

func (f *fakeAdmin) CreateRealmRole(_ context.Context, realm string, role Role) error {
	if err := f.call("CreateRealmRole"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	role.ID = f.id()
	r.roles[role.Name] = role
	return nil
}

func (f *fakeAdmin) DeleteRealmRole(_ context.Context, realm, name string) error {
	if err := f.call("DeleteRealmRole"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	delete(r.roles, name)
	return nil
}

func (f *fakeAdmin) FindGroup(_ context.Context, realm, name string) (*Group, error) {
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	g, ok := r.groups[name]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "group %s", name)
	}
	return &g, nil
}

func (f *fakeAdmin) CreateGroup(_ context.Context, realm, name string) (string, error) {
	if err := f.call("CreateGroup"); err != nil {
		return "", err
	}
	r, err := f.realm(realm)
	if err != nil {
		return "", err
	}
	g := Group{ID: f.id(), Name: name}
	r.groups[name] = g
	return g.ID, nil
}

func (f *fakeAdmin) DeleteGroup(_ context.Context, realm, groupID string) error {
	if err := f.call("DeleteGroup"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	for name, g := range r.groups {
		if g.ID == groupID {
			delete(r.groups, name)
		}
	}
	return nil
}

func (f *fakeAdmin) AddRealmRolesToGroup(_ context.Context, realm, groupID string, roles []Role) error {
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	for _, role := range roles {
		r.groupRoles[groupID] = append(r.groupRoles[groupID], role.Name)
	}
	return nil
}

func (f *fakeAdmin) AddClientRolesToGroup(_ context.Context, realm, _, groupID string, roles []Role) error {
	return f.AddRealmRolesToGroup(context.Background(), realm, groupID, roles)
}

func (f *fakeAdmin) FindClient(_ context.Context, realm, clientID string) (*Client, error) {
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	id, ok := r.clientIDs[clientID]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "client %s", clientID)
	}
	return &Client{ID: id, ClientID: clientID}, nil
}

func (f *fakeAdmin) GetClientRoles(_ context.Context, realm, idOfClient string) ([]Role, error) {
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	return r.clientRoles[idOfClient], nil
}

func (f *fakeAdmin) CreateClient(_ context.Context, realm string, client map[string]any) (string, error) {
	if err := f.call("CreateClient"); err != nil {
		return "", err
	}
	r, err := f.realm(realm)
	if err != nil {
		return "", err
	}
	clientID := client["clientId"].(string)
	id := f.id()
	r.clients[clientID] = client
	r.clientIDs[clientID] = id
	return id, nil
}

func (f *fakeAdmin) DeleteClient(_ context.Context, realm, idOfClient string) error {
	if err := f.call("DeleteClient"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	for clientID, id := range r.clientIDs {
		if id == idOfClient {
			delete(r.clientIDs, clientID)
			delete(r.clients, clientID)
		}
	}
	return nil
}

func (f *fakeAdmin) UploadClientCertificate(_ context.Context, realm, idOfClient, _ string, pem []byte) error {
	if err := f.call("UploadClientCertificate"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	r.certificates[idOfClient] = pem
	return nil
}

func (f *fakeAdmin) FindUser(_ context.Context, realm, username string) (*User, error) {
	if err := f.call("FindUser"); err != nil {
		return nil, err
	}
	r, err := f.realm(realm)
	if err != nil {
		return nil, err
	}
	u, ok := r.users[username]
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", username)
	}
	return &u, nil
}

func (f *fakeAdmin) CreateUser(_ context.Context, realm string, user User) (string, error) {
	if err := f.call("CreateUser"); err != nil {
		return "", err
	}
	r, err := f.realm(realm)
	if err != nil {
		return "", err
	}
	user.ID = f.id()
	r.users[user.Username] = user
	return user.ID, nil
}

func (f *fakeAdmin) SetPassword(_ context.Context, realm, userID, password string) error {
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	r.passwords[userID] = password
	return nil
}

func (f *fakeAdmin) DeleteUser(_ context.Context, realm, userID string) error {
	if err := f.call("DeleteUser"); err != nil {
		return err
	}
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	for name, u := range r.users {
		if u.ID == userID {
			delete(r.users, name)
		}
	}
	return nil
}

func (f *fakeAdmin) AddRealmRolesToUser(_ context.Context, realm, userID string, roles []Role) error {
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	for _, role := range roles {
		r.userRoles[userID] = append(r.userRoles[userID], role.Name)
	}
	return nil
}

func (f *fakeAdmin) AddUserToGroup(_ context.Context, realm, userID, groupID string) error {
	r, err := f.realm(realm)
	if err != nil {
		return err
	}
	r.userGroups[userID] = append(r.userGroups[userID], groupID)
	return nil
}

func slicesFromKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

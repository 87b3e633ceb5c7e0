package keycloak

import "fmt"

// Names of the objects every dataspace realm carries.
const (
	AudienceScope      = "inesdata-dataspace-audience"
	NotBeforeScope     = "inesdata-nbf-claim"
	UsersClientID      = "dataspace-users"
	RealmManagementID  = "realm-management"
	RoleConnectorUser  = "connector-user"
	RoleConnectorAdmin = "connector-admin"
	RoleDataspaceAdmin = "dataspace-admin"
	userEmailDomain    = "inesdata.com"
)

// managerClientRoles are the realm-management roles granted to the manager group.
var managerClientRoles = []string{"view-realm", "view-users", "query-users", "manage-users"}

var scopeAttributes = map[string]string{
	"display.on.consent.screen": "false",
	"include.in.token.scope":    "false",
}

func audienceScopePayload(realm, internalURL string) map[string]any {
	return map[string]any{
		"name":        AudienceScope,
		"description": fmt.Sprintf("INESDATA: Add audience for %s dataspace", realm),
		"protocol":    "openid-connect",
		"attributes":  scopeAttributes,
		"protocolMappers": []map[string]any{{
			"name":           "add-namespace-audience",
			"protocol":       "openid-connect",
			"protocolMapper": "oidc-audience-mapper",
			"config": map[string]string{
				"included.client.audience":  "",
				"included.custom.audience":  fmt.Sprintf("%s/realms/%s", internalURL, realm),
				"id.token.claim":            "false",
				"access.token.claim":        "true",
				"token.introspection.claim": "true",
			},
		}},
	}
}

func notBeforeScopePayload() map[string]any {
	return map[string]any{
		"name":        NotBeforeScope,
		"description": "INESDATA: Add nbf required claim",
		"protocol":    "openid-connect",
		"attributes":  scopeAttributes,
		"protocolMappers": []map[string]any{{
			"name":           "add-default-nbf-value",
			"protocol":       "openid-connect",
			"protocolMapper": "oidc-hardcoded-claim-mapper",
			"config": map[string]string{
				"claim.name":                  "nbf",
				"jsonType.label":              "int",
				"claim.value":                 "0",
				"id.token.claim":              "false",
				"access.token.claim":          "true",
				"userinfo.token.claim":        "true",
				"access.token.response.claim": "false",
				"token.introspection.claim":   "true",
			},
		}},
	}
}

func usersClientPayload() map[string]any {
	return map[string]any{
		"clientId":               UsersClientID,
		"name":                   UsersClientID,
		"description":            "Inesdata: Cliente para la identificación de los usuarios del dataspace",
		"alwaysDisplayInConsole": false,
		"redirectUris":           []string{"*"},
		"webOrigins":             []string{"*"},
		"protocol":               "openid-connect",
		"enabled":                true,
		"publicClient":           true,
		"frontchannelLogout":     true,
		"attributes": map[string]string{
			"post.logout.redirect.uris":           "+",
			"backchannel.logout.session.required": "true",
		},
		"defaultClientScopes": []string{
			AudienceScope, NotBeforeScope, "profile", "email", "acr", "web-origins", "roles",
		},
	}
}

func connectorClientPayload(connector string) map[string]any {
	return map[string]any{
		"clientId":                  connector,
		"name":                      connector,
		"description":               "Client for connector " + connector,
		"protocol":                  "openid-connect",
		"redirectUris":              []string{"*"},
		"webOrigins":                []string{"*"},
		"publicClient":              false,
		"enabled":                   true,
		"serviceAccountsEnabled":    true,
		"directAccessGrantsEnabled": true,
		"clientAuthenticatorType":   "client-jwt",
		"attributes": map[string]string{
			"frontchannel.logout":                 "true",
			"backchannel.logout.session.required": "true",
		},
		"defaultClientScopes": []string{AudienceScope, NotBeforeScope, "profile", "email", "acr"},
	}
}

// dataspaceRoles are the realm roles created with every dataspace.
func dataspaceRoles(realm string) []Role {
	return []Role{
		{Name: RoleConnectorUser},
		ConnectorRole(RoleConnectorAdmin),
		{
			Name: RoleDataspaceAdmin,
			Attributes: map[string][]string{
				"dataspace": {realm},
				"role-type": {RoleDataspaceAdmin},
			},
		},
	}
}

// ConnectorRole describes a role tagged as belonging to connector name.
func ConnectorRole(name string) Role {
	return Role{
		Name: name,
		Attributes: map[string][]string{
			"connector":      {name},
			"connector-type": {"inesdata-connector"},
		},
	}
}

func newUser(username string) User {
	return User{
		Username:      username,
		Email:         username + "@" + userEmailDomain,
		FirstName:     username,
		LastName:      username,
		Enabled:       true,
		EmailVerified: true,
	}
}

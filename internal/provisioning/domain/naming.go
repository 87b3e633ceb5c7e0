// Package domain defines the entities, naming rules and step model used to
// provision dataspaces and connectors.
package domain

import (
	"strings"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// Environment selects the deployment flavour (URLs, certificates directory).
type Environment string

const (
	EnvDEV Environment = "DEV"
	EnvPRO Environment = "PRO"
)

// ErrInvalidEnvironment is returned for environments other than DEV and PRO.
var ErrInvalidEnvironment = apperrors.Wrap(apperrors.ErrInvalidInput, "environment must be DEV or PRO")

// ParseEnvironment accepts DEV or PRO in any case.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToUpper(strings.TrimSpace(s))) {
	case EnvDEV:
		return EnvDEV, nil
	case EnvPRO:
		return EnvPRO, nil
	default:
		return "", ErrInvalidEnvironment
	}
}

// Credential bundle categories.
const (
	CategoryRegistrationServiceDB = "registration_service_database"
	CategoryWebPortalDB           = "web_portal_database"
	CategoryWebPortalSecrets      = "web_portal_secrets"
	CategoryDatabase              = "database"
	CategoryCertificates          = "certificates"
	CategoryRealmManager          = credentials.CategoryRealmManager
	CategoryStrapiUser            = credentials.CategoryStrapiUser
	CategoryConnectorUser         = credentials.CategoryConnectorUser
	CategoryVault                 = credentials.CategoryVault
	CategoryMinio                 = credentials.CategoryMinio
)

// DatabaseCredentials identifies a provisioned database and its owner.
type DatabaseCredentials struct {
	Name     string
	User     string
	Password string
}

// Fields returns the bundle representation {name, user, passwd}.
func (d DatabaseCredentials) Fields() map[string]string {
	return map[string]string{"name": d.Name, "user": d.User, "passwd": d.Password}
}

// DatabaseCredentialsFromFields reads a {name, user, passwd} bundle category.
func DatabaseCredentialsFromFields(fields map[string]string) (DatabaseCredentials, error) {
	creds := DatabaseCredentials{Name: fields["name"], User: fields["user"], Password: fields["passwd"]}
	if creds.Name == "" || creds.User == "" {
		return DatabaseCredentials{}, apperrors.Wrap(apperrors.ErrInvalidInput, "database credentials are incomplete")
	}
	return creds, nil
}

// SQLName turns an entity name into a database identifier.
func SQLName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// RegistrationServiceDatabase returns the {ds}_rs database and its {ds}_rsusr owner.
func RegistrationServiceDatabase(dataspace string) (database, user string) {
	base := SQLName(dataspace)
	return base + "_rs", base + "_rsusr"
}

// WebPortalDatabase returns the {ds}_wp database and its {ds}_wpusr owner.
func WebPortalDatabase(dataspace string) (database, user string) {
	base := SQLName(dataspace)
	return base + "_wp", base + "_wpusr"
}

// ConnectorDatabase returns the database of a connector; owner and database share the name.
func ConnectorDatabase(connector string) string {
	return SQLName(connector)
}

// Package postgres provisions databases and users on the shared Postgres
// server and maintains the connector rows of a dataspace registration service.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/inesdata/dataspace-tools/internal/database"
	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// SQLSTATE codes reported when an object already exists.
const (
	codeDuplicateDatabase = "42P04"
	codeDuplicateObject   = "42710"
)

// Config holds the admin connection settings.
type Config struct {
	Host     string
	User     string
	Password string
	SSLMode  string
	// Timeout bounds every statement issued by the provisioner.
	Timeout time.Duration
}

// OpenFunc opens a connection to database on the server as user.
type OpenFunc func(ctx context.Context, user, password, database string) (*sql.DB, error)

// Provisioner runs admin statements against the Postgres server.
type Provisioner struct {
	cfg    Config
	open   OpenFunc
	logger *slog.Logger
}

// NewProvisioner creates a Provisioner that connects with lib/pq.
func NewProvisioner(cfg Config, logger *slog.Logger) *Provisioner {
	p := &Provisioner{cfg: cfg, logger: logger}
	p.open = p.connect
	return p
}

// NewProvisionerWithOpener creates a Provisioner using a custom connection opener.
func NewProvisionerWithOpener(cfg Config, open OpenFunc, logger *slog.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, open: open, logger: logger}
}

func (p *Provisioner) connect(ctx context.Context, user, password, dbName string) (*sql.DB, error) {
	return database.Connect(ctx, database.Config{
		ConnectionString:   database.PostgresURL(p.cfg.Host, user, password, dbName, p.cfg.SSLMode),
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		ConnMaxLifetime:    time.Minute,
	})
}

func (p *Provisioner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cfg.Timeout)
}

func (p *Provisioner) openAdmin(ctx context.Context, dbName string) (*sql.DB, error) {
	db, err := p.open(ctx, p.cfg.User, p.cfg.Password, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres at %s: %w", p.cfg.Host, err)
	}
	return db, nil
}

// CreateDatabase creates user with password, then database owned by user with
// all privileges granted. Statements run in autocommit mode; the first failure
// aborts and is returned, leaving earlier statements applied.
func (p *Provisioner) CreateDatabase(ctx context.Context, dbName, user, password string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	db, err := p.openAdmin(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	quotedDB := pq.QuoteIdentifier(dbName)
	quotedUser := pq.QuoteIdentifier(user)
	statements := []string{
		fmt.Sprintf("CREATE USER %s WITH ENCRYPTED PASSWORD %s", quotedUser, pq.QuoteLiteral(password)),
		fmt.Sprintf("CREATE DATABASE %s", quotedDB),
		fmt.Sprintf("ALTER DATABASE %s OWNER TO %s", quotedDB, quotedUser),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO %s", quotedDB, quotedUser),
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return classify(err, fmt.Sprintf("failed to create database %s", dbName))
		}
	}

	p.logger.Info("database created", slog.String("database", dbName), slog.String("user", user))
	return nil
}

// DeleteDatabase drops database and then user. Both statements are attempted;
// failures are logged and returned joined.
func (p *Provisioner) DeleteDatabase(ctx context.Context, dbName, user string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	db, err := p.openAdmin(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var errs []error
	if _, err := db.ExecContext(ctx, "DROP DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		p.logger.Warn("failed to drop database", slog.String("database", dbName), slog.Any("error", err))
		errs = append(errs, classify(err, fmt.Sprintf("failed to drop database %s", dbName)))
	}
	if _, err := db.ExecContext(ctx, "DROP USER "+pq.QuoteIdentifier(user)); err != nil {
		p.logger.Warn("failed to drop user", slog.String("user", user), slog.Any("error", err))
		errs = append(errs, classify(err, fmt.Sprintf("failed to drop user %s", user)))
	}
	return apperrors.Join(errs...)
}

// RegisterConnector inserts connector into the edc_participant table of the
// registration-service database rsDatabase.
func (p *Provisioner) RegisterConnector(ctx context.Context, rsDatabase, connector, dataspace, env string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	db, err := p.openAdmin(ctx, rsDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	protocolURL, sharedURL := ParticipantURLs(connector, dataspace, env)
	_, err = db.ExecContext(
		ctx,
		`INSERT INTO public.edc_participant (participant_id, url, created_at, shared_url)
		VALUES ($1, $2, EXTRACT(EPOCH FROM NOW())::BIGINT, $3)`,
		connector,
		protocolURL,
		sharedURL,
	)
	if err != nil {
		return classify(err, fmt.Sprintf("failed to register connector %s", connector))
	}

	p.logger.Info("connector registered",
		slog.String("connector", connector),
		slog.String("database", rsDatabase),
		slog.String("url", protocolURL),
	)
	return nil
}

// CheckConnection connects to dbName as user and runs SELECT 1.
func (p *Provisioner) CheckConnection(ctx context.Context, dbName, user, password string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	db, err := p.open(ctx, user, password, dbName)
	if err != nil {
		return fmt.Errorf("failed to connect to %s as %s: %w", dbName, user, err)
	}
	defer func() { _ = db.Close() }()

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("failed to query %s: %w", dbName, err)
	}
	return nil
}

// ParticipantURLs returns the protocol and shared endpoints a connector
// advertises in the registration service.
func ParticipantURLs(connector, dataspace, env string) (string, string) {
	if strings.EqualFold(env, "DEV") {
		return fmt.Sprintf("http://%s:19194/protocol", connector),
			fmt.Sprintf("http://%s:19196/shared", connector)
	}
	base := fmt.Sprintf("https://%s-%s.ds.inesdata-project.eu", connector, dataspace)
	return base + "/protocol", base + "/shared"
}

func classify(err error, message string) error {
	var pqErr *pq.Error
	if apperrors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeDuplicateDatabase, codeDuplicateObject:
			return fmt.Errorf("%s: %w: %s", message, apperrors.ErrConflict, pqErr.Message)
		}
	}
	return apperrors.Wrap(err, message)
}

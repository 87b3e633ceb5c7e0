package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
	"github.com/inesdata/dataspace-tools/internal/render"
	"github.com/inesdata/dataspace-tools/internal/validation"
)

type dataspaceUseCase struct {
	settings Settings
	store    CredentialStore
	db       DatabaseProvisioner
	identity IdentityOpener
	renderer ValuesRenderer
	printer  printer
	logger   *slog.Logger
}

// NewDataspaceUseCase creates a DataspaceUseCase. Progress lines go to out.
func NewDataspaceUseCase(
	settings Settings,
	store CredentialStore,
	db DatabaseProvisioner,
	identity IdentityOpener,
	renderer ValuesRenderer,
	out io.Writer,
	logger *slog.Logger,
) DataspaceUseCase {
	return &dataspaceUseCase{
		settings: settings,
		store:    store,
		db:       db,
		identity: identity,
		renderer: renderer,
		printer:  printer{out: out},
		logger:   logger,
	}
}

// Create provisions the registration-service and web-portal databases, the
// web-portal secrets and the Keycloak realm, then renders the values files.
func (d *dataspaceUseCase) Create(ctx context.Context, name string) error {
	if err := validation.ValidateEntityName("dataspace", name); err != nil {
		return err
	}

	d.printer.printf("Creating dataspace %s!", name)
	logger := d.logger.With(slog.String("dataspace", name))
	bundle := d.settings.bundlePath(name, credentials.KindDataspace, name)
	record := recorderFor(d.store, bundle)
	rsDB, rsUser := domain.RegistrationServiceDatabase(name)
	wpDB, wpUser := domain.WebPortalDatabase(name)
	identity := &lazyIdentity{open: d.identity}

	steps := []domain.Step{
		{
			Name: "credentials file",
			Run: func(ctx context.Context) error {
				return d.store.Create(ctx, bundle)
			},
		},
		{
			Name: "registration-service database",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Creating %s registration-service", name)
				d.printer.printf("  + Creating registration-service database")
				return d.createDatabase(ctx, rsDB, rsUser, record, domain.CategoryRegistrationServiceDB)
			},
			Compensate: func(ctx context.Context) error {
				return d.db.DeleteDatabase(ctx, rsDB, rsUser)
			},
		},
		{
			Name: "web portal database",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Creating %s Web Portal", name)
				d.printer.printf("  + Creating Web Portal database")
				return d.createDatabase(ctx, wpDB, wpUser, record, domain.CategoryWebPortalDB)
			},
			Compensate: func(ctx context.Context) error {
				return d.db.DeleteDatabase(ctx, wpDB, wpUser)
			},
		},
		{
			Name: "web portal secrets",
			Run: func(ctx context.Context) error {
				d.printer.printf("  + Creating Web Portal secrets")
				secrets, err := credentials.WebPortalSecrets()
				if err != nil {
					return err
				}
				return record(ctx, domain.CategoryWebPortalSecrets, secrets)
			},
		},
		{
			Name: "keycloak realm",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Creating %s Keycloak realm", name)
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				return idp.EnsureDataspace(ctx, name, record)
			},
			Compensate: func(ctx context.Context) error {
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				_, err = idp.DeleteRealm(ctx, name)
				return err
			},
		},
		{
			Name: "values files",
			Run: func(ctx context.Context) error {
				return d.renderValues(ctx, bundle, name)
			},
		},
	}

	if err := runSteps(ctx, steps, d.settings.Rollback, logger); err != nil {
		return fmt.Errorf("failed to create dataspace %s: %w", name, err)
	}

	d.printer.printf("Dataspace %s created successfully!", name)
	logger.Info("dataspace created")
	return nil
}

func (d *dataspaceUseCase) createDatabase(
	ctx context.Context,
	dbName, user string,
	record credentials.RecordFunc,
	category string,
) error {
	password, err := credentials.GeneratePassword(credentials.MinPasswordLength)
	if err != nil {
		return err
	}
	if err := d.db.CreateDatabase(ctx, dbName, user, password); err != nil {
		return err
	}
	creds := domain.DatabaseCredentials{Name: dbName, User: user, Password: password}
	return record(ctx, category, creds.Fields())
}

func (d *dataspaceUseCase) renderValues(ctx context.Context, bundlePath, name string) error {
	bundle, err := d.store.Load(ctx, bundlePath)
	if err != nil {
		return err
	}
	keys := render.Keys(bundle, map[string]string{"dataspace_name": name}, d.settings.TemplateKeys)
	return d.renderer.RenderAll(render.DataspaceTargets(d.settings.Root, name), keys)
}

// Delete drops both dataspace databases and the realm. Every task runs even
// when an earlier one fails.
func (d *dataspaceUseCase) Delete(ctx context.Context, name string) (domain.Summary, error) {
	if err := validation.ValidateEntityName("dataspace", name); err != nil {
		return domain.Summary{}, err
	}

	d.printer.printf("Deleting dataspace %s...", name)
	logger := d.logger.With(slog.String("dataspace", name))
	rsDB, rsUser := domain.RegistrationServiceDatabase(name)
	wpDB, wpUser := domain.WebPortalDatabase(name)
	identity := &lazyIdentity{open: d.identity}

	tasks := []domain.DeleteTask{
		{
			Name: name + " registration-service database",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Deleting %s registration-service database", name)
				return d.db.DeleteDatabase(ctx, rsDB, rsUser)
			},
		},
		{
			Name: name + " Web Portal database",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Deleting %s Web Portal database", name)
				return d.db.DeleteDatabase(ctx, wpDB, wpUser)
			},
		},
		{
			Name: name + " realm",
			Run: func(ctx context.Context) error {
				d.printer.printf("- Deleting %s realm", name)
				idp, err := identity.get(ctx)
				if err != nil {
					return err
				}
				deleted, err := idp.DeleteRealm(ctx, name)
				if err == nil && !deleted {
					d.printer.printf("  + Realm %s not found", name)
				}
				return err
			},
		},
	}

	summary := runTasks(ctx, tasks, d.printer, logger)
	if summary.OK() {
		d.printer.printf("Dataspace %s deleted successfully!", name)
		logger.Info("dataspace deleted")
	} else {
		d.printer.printf("Dataspace %s deleted with errors", name)
		logger.Warn("dataspace deleted with errors", slog.Int("failed_tasks", len(summary.Failed())))
	}
	return summary, nil
}

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	provisioningUsecase "github.com/inesdata/dataspace-tools/internal/provisioning/usecase"
)

// RunCreateConnector provisions every resource a connector needs inside a dataspace.
func RunCreateConnector(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	name, dataspace string,
) error {
	logger.Info("creating connector", slog.String("connector", name), slog.String("dataspace", dataspace))

	if err := useCase.Create(ctx, name, dataspace); err != nil {
		return err
	}

	logger.Info("connector created", slog.String("connector", name), slog.String("dataspace", dataspace))
	return nil
}

// RunDeleteConnector removes the connector database and Keycloak identity.
// The command fails when any deletion did.
func RunDeleteConnector(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	name, dataspace string,
) error {
	logger.Info("deleting connector", slog.String("connector", name), slog.String("dataspace", dataspace))

	summary, err := useCase.Delete(ctx, name, dataspace)
	if err != nil {
		return err
	}
	if !summary.OK() {
		logger.Error(
			"connector deleted with errors",
			slog.String("connector", name),
			slog.Any("failed", failedTasks(summary)),
		)
		return fmt.Errorf("connector %s deleted with errors: %w", name, summary.Err())
	}

	logger.Info("connector deleted", slog.String("connector", name), slog.String("dataspace", dataspace))
	return nil
}

// RunFixConnector applies the pending schema fixes to the connector database.
func RunFixConnector(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	name, dataspace string,
) error {
	if err := useCase.Fix(ctx, name, dataspace); err != nil {
		return err
	}
	logger.Info("connector database fixed", slog.String("connector", name))
	return nil
}

// RunRenewConnector issues a new Vault token for the connector and prints
// which secrets the token can read. Secret values are never printed.
func RunRenewConnector(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, dataspace string,
) error {
	report, err := useCase.Renew(ctx, name, dataspace)
	if err != nil {
		return err
	}

	writeLine(writer, "  + Token TTL: %s", report.Token.TTL)
	writeLine(writer, "  + Token policies: %v", report.Token.Policies)
	missing := 0
	for _, secret := range report.Secrets {
		switch {
		case secret.Err != nil:
			missing++
			writeLine(writer, "  + %s: error (%v)", secret.Path, secret.Err)
		case secret.Present:
			writeLine(writer, "  + %s: ok", secret.Path)
		default:
			missing++
			writeLine(writer, "  + %s: empty", secret.Path)
		}
	}

	logger.Info(
		"connector token renewed",
		slog.String("connector", name),
		slog.Duration("ttl", report.Token.TTL),
		slog.Int("unreadable_secrets", missing),
	)
	if missing > 0 {
		return fmt.Errorf("renewed token of connector %s cannot read %d secrets", name, missing)
	}
	return nil
}

// RunCheckBucket reports whether the connector bucket is reachable and lists its objects.
func RunCheckBucket(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	writer io.Writer,
	name, dataspace string,
) error {
	report, err := useCase.CheckBucket(ctx, name, dataspace)
	if err != nil {
		return err
	}

	writeLine(writer, "Checking '%s'", report.Bucket)
	if !report.Accessible {
		writeLine(writer, "Bucket '%s' does not exist", report.Bucket)
		logger.Warn("bucket not accessible", slog.String("bucket", report.Bucket))
		return nil
	}

	writeLine(writer, "Bucket '%s' already exists", report.Bucket)
	writeLine(writer, "  + Objects")
	for _, key := range report.Objects {
		writeLine(writer, "    - %s", key)
	}

	logger.Info("bucket checked", slog.String("bucket", report.Bucket), slog.Int("objects", len(report.Objects)))
	return nil
}

// RunCheckDatabase connects to the connector database with the recorded credentials.
func RunCheckDatabase(
	ctx context.Context,
	useCase provisioningUsecase.ConnectorUseCase,
	logger *slog.Logger,
	name, dataspace string,
) error {
	if err := useCase.CheckDatabase(ctx, name, dataspace); err != nil {
		return err
	}
	logger.Info("connector database reachable", slog.String("connector", name))
	return nil
}

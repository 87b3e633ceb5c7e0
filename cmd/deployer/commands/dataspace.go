package commands

import (
	"context"
	"fmt"
	"log/slog"

	provisioningUsecase "github.com/inesdata/dataspace-tools/internal/provisioning/usecase"
)

// RunCreateDataspace provisions the databases, the Keycloak realm, the
// credentials bundle and the values files of a dataspace.
func RunCreateDataspace(
	ctx context.Context,
	useCase provisioningUsecase.DataspaceUseCase,
	logger *slog.Logger,
	name string,
) error {
	logger.Info("creating dataspace", slog.String("dataspace", name))

	if err := useCase.Create(ctx, name); err != nil {
		return err
	}

	logger.Info("dataspace created", slog.String("dataspace", name))
	return nil
}

// RunDeleteDataspace removes the databases and the realm of a dataspace. Every
// deletion is attempted; the command fails when any of them did.
func RunDeleteDataspace(
	ctx context.Context,
	useCase provisioningUsecase.DataspaceUseCase,
	logger *slog.Logger,
	name string,
) error {
	logger.Info("deleting dataspace", slog.String("dataspace", name))

	summary, err := useCase.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !summary.OK() {
		logger.Error(
			"dataspace deleted with errors",
			slog.String("dataspace", name),
			slog.Any("failed", failedTasks(summary)),
		)
		return fmt.Errorf("dataspace %s deleted with errors: %w", name, summary.Err())
	}

	logger.Info("dataspace deleted", slog.String("dataspace", name))
	return nil
}

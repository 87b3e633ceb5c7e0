// Package usecase orchestrates the provisioning of dataspaces and connectors
// across Postgres, Keycloak, Vault, the object store and the local
// deployment files.
//
// Create operations run an ordered list of steps and stop at the first
// failure. Side effects of completed steps and the credentials they recorded
// are kept unless rollback is enabled, in which case completed steps are
// compensated in reverse order. Delete operations run independent tasks and
// report every outcome in a Summary.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/inesdata/dataspace-tools/internal/credentials"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
)

// Settings are shared by the provisioning use cases.
type Settings struct {
	// Root is the directory holding deployments/ and the values templates.
	Root string
	Env  domain.Environment
	// Rollback compensates completed steps when a create operation fails.
	Rollback bool
	// TemplateKeys are the config file entries exposed to values templates.
	TemplateKeys map[string]string
}

func (s Settings) bundlePath(dataspace string, kind credentials.Kind, name string) string {
	return credentials.BundlePath(s.Root, string(s.Env), dataspace, kind, name)
}

func (s Settings) certificatesDir(dataspace string) string {
	return filepath.Join(s.Root, s.relativeCertificatesDir(dataspace))
}

func (s Settings) relativeCertificatesDir(dataspace string) string {
	return filepath.Join("deployments", string(s.Env), dataspace, "certs")
}

func recorderFor(store CredentialStore, path string) credentials.RecordFunc {
	return func(ctx context.Context, category string, fields map[string]string) error {
		return store.Register(ctx, path, category, fields)
	}
}

type printer struct {
	out io.Writer
}

func (p printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func runSteps(ctx context.Context, steps []domain.Step, rollback bool, logger *slog.Logger) error {
	completed := make([]domain.Step, 0, len(steps))
	for _, step := range steps {
		logger.Debug("running step", slog.String("step", step.Name))
		if err := step.Run(ctx); err != nil {
			err = fmt.Errorf("%s: %w", step.Name, err)
			logger.Error("step failed", slog.String("step", step.Name), slog.Any("error", err))
			if rollback {
				return errors.Join(err, compensate(ctx, completed, logger))
			}
			return err
		}
		completed = append(completed, step)
	}
	return nil
}

func compensate(ctx context.Context, completed []domain.Step, logger *slog.Logger) error {
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		logger.Info("compensating step", slog.String("step", step.Name))
		if err := step.Compensate(ctx); err != nil {
			logger.Error("compensation failed", slog.String("step", step.Name), slog.Any("error", err))
			errs = append(errs, fmt.Errorf("rollback %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}

func runTasks(ctx context.Context, tasks []domain.DeleteTask, p printer, logger *slog.Logger) domain.Summary {
	summary := domain.Summary{Results: make([]domain.TaskResult, 0, len(tasks))}
	for _, task := range tasks {
		err := task.Run(ctx)
		if err != nil {
			p.printf("Failed to delete %s: %v", task.Name, err)
			logger.Error("delete task failed", slog.String("task", task.Name), slog.Any("error", err))
		}
		summary.Results = append(summary.Results, domain.TaskResult{Name: task.Name, Err: err})
	}
	return summary
}

// lazyIdentity opens the identity session on first use and reuses the
// outcome, error included, for later calls.
type lazyIdentity struct {
	open   IdentityOpener
	opened bool
	idp    IdentityProvisioner
	err    error
}

func (l *lazyIdentity) get(ctx context.Context) (IdentityProvisioner, error) {
	if !l.opened {
		l.idp, l.err = l.open(ctx)
		l.opened = true
	}
	return l.idp, l.err
}

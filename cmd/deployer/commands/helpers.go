// Package commands contains the deployer CLI command implementations.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/inesdata/dataspace-tools/internal/app"
	"github.com/inesdata/dataspace-tools/internal/provisioning/domain"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// CloseContainer closes all resources in the container and logs any errors.
func CloseContainer(container *app.DeployerContainer, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

func writeLine(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}

// failedTasks returns the names of the failed tasks of a summary.
func failedTasks(summary domain.Summary) []string {
	names := make([]string, 0)
	for _, result := range summary.Failed() {
		names = append(names, result.Name)
	}
	return names
}

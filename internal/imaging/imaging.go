// Package imaging turns downloaded tabular datasets into synthetic images by
// running an external image-synthesis command, and packages the result.
package imaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

// DefaultMethod is used when the requested method is unknown.
const DefaultMethod = "TINTO"

// ArchiveName is the file name offered for the image archive.
const ArchiveName = "tinto_synthetic_images.zip"

// Methods lists the supported synthesis methods.
var Methods = []string{
	"TINTO",
	"IGTD",
	"REFINED",
	"BarGraph",
	"DistanceMatrix",
	"Combination",
	"SuperTML",
	"FeatureWrap",
	"BIE",
}

// Problems lists the supported problem types.
var Problems = []string{"supervised", "unsupervised", "regression"}

// NormalizeMethod returns method when supported, DefaultMethod otherwise.
func NormalizeMethod(method string) string {
	if slices.Contains(Methods, method) {
		return method
	}
	return DefaultMethod
}

// Request describes one synthesis run.
type Request struct {
	Method  string
	Problem string
	// Params are method specific options passed as --param key=value.
	Params map[string]string
}

// PreviewLimit is how many images a result listing previews.
const PreviewLimit = 10

// ErrUnknownImage is returned for a name the result does not list.
var ErrUnknownImage = apperrors.Wrap(apperrors.ErrNotFound, "image not found")

// Result holds the images produced by a run. Images are paths relative to OutputDir.
type Result struct {
	Method    string
	OutputDir string
	Images    []string
}

// Read returns the bytes of one listed image. Only names the run produced are
// served, so a crafted name cannot leave OutputDir.
func (r *Result) Read(name string) ([]byte, error) {
	if r == nil || !slices.Contains(r.Images, name) {
		return nil, ErrUnknownImage
	}
	data, err := os.ReadFile(filepath.Join(r.OutputDir, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", name, err)
	}
	return data, nil
}

// Synthesizer produces images from CSV data.
type Synthesizer interface {
	Synthesize(ctx context.Context, csv []byte, req Request) (*Result, error)
}

// ExecSynthesizer runs an external command for each request:
//
//	<command> --method <m> --input <csv> --output <dir> --problem <p> [--param k=v ...]
//
// For classification problems a categorical last column is label encoded
// before the command sees the file.
type ExecSynthesizer struct {
	command []string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecSynthesizer creates a synthesizer for a whitespace separated command line.
func NewExecSynthesizer(command, workDir string, timeout time.Duration, logger *slog.Logger) *ExecSynthesizer {
	return &ExecSynthesizer{
		command: strings.Fields(command),
		workDir: workDir,
		timeout: timeout,
		logger:  logger,
	}
}

// Synthesize writes csv to a fresh run directory, runs the command and
// collects the generated PNG files.
func (e *ExecSynthesizer) Synthesize(ctx context.Context, csv []byte, req Request) (*Result, error) {
	if len(e.command) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrUnavailable, "image synthesis command is not configured")
	}
	if len(csv) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "no data to process")
	}

	if err := os.MkdirAll(e.workDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	runDir, err := os.MkdirTemp(e.workDir, "run-")
	if err != nil {
		return nil, fmt.Errorf("failed to create run dir: %w", err)
	}

	result, err := e.run(ctx, runDir, csv, req)
	if err != nil {
		_ = os.RemoveAll(runDir)
		return nil, err
	}
	return result, nil
}

func (e *ExecSynthesizer) run(ctx context.Context, runDir string, csv []byte, req Request) (*Result, error) {
	method := NormalizeMethod(req.Method)
	req.Problem = NormalizeProblem(req.Problem)
	logger := e.logger.With(slog.String("method", method), slog.String("run_dir", runDir))

	if encodesTarget(req.Problem) {
		encoded, encoding, err := EncodeTarget(csv)
		if err != nil {
			return nil, err
		}
		if encoding != nil {
			logger.Info("encoded categorical target column",
				slog.String("column", encoding.Column),
				slog.Any("labels", encoding.Labels),
			)
			csv = encoded
		}
	}

	inputPath := filepath.Join(runDir, "data.csv")
	outputDir := filepath.Join(runDir, "images")
	if err := os.WriteFile(inputPath, csv, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write input: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	args := append(slices.Clone(e.command[1:]), commandArgs(method, inputPath, outputDir, req)...)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	logger.Info("generating synthetic images", slog.String("problem", req.Problem))

	cmd := exec.CommandContext(ctx, e.command[0], args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		logger.Error("image synthesis failed", slog.Any("error", err), slog.String("output", tail(output)))
		return nil, fmt.Errorf("failed to run image synthesis: %w", err)
	}

	images, err := CollectImages(outputDir)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, apperrors.Wrap(
			apperrors.ErrInvalidInput,
			"no images were generated, check if the dataset format is correct",
		)
	}

	logger.Info("synthetic images generated", slog.Int("images", len(images)))
	return &Result{Method: method, OutputDir: outputDir, Images: images}, nil
}

func commandArgs(method, input, output string, req Request) []string {
	args := []string{"--method", method, "--input", input, "--output", output}
	if req.Problem != "" {
		args = append(args, "--problem", req.Problem)
	}

	keys := make([]string, 0, len(req.Params))
	for k := range req.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--param", k+"="+req.Params[k])
	}
	return args
}

// CollectImages returns every PNG below dir, as slash separated paths
// relative to dir, in lexical order.
func CollectImages(dir string) ([]string, error) {
	images := make([]string, 0)
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".png" {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		images = append(images, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect images: %w", err)
	}
	return images, nil
}

// Remove deletes the run directory that holds a result.
func Remove(result *Result) error {
	if result == nil || result.OutputDir == "" {
		return nil
	}
	if err := os.RemoveAll(filepath.Dir(result.OutputDir)); err != nil {
		return fmt.Errorf("failed to remove images: %w", err)
	}
	return nil
}

func tail(output []byte) string {
	const maxOutput = 2048
	if len(output) > maxOutput {
		output = output[len(output)-maxOutput:]
	}
	return string(output)
}

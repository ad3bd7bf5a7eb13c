package manifest

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/play-publisher/internal/domain/release"
	"github.com/oshokin/play-publisher/internal/logger"
)

// ToolResolver provides a runnable path to the bundle-inspection tool,
// provisioning it on demand.
type ToolResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Extractor reads package identity from a binary artifact by invoking
// the appropriate inspection tool and parsing its output.
type Extractor struct {
	// bundleTool provisions the bundle-inspection tool when needed.
	bundleTool ToolResolver
	// commandTimeout bounds a single tool invocation.
	commandTimeout time.Duration
}

const (
	// badgingTool is the system-provided APK inspection tool, resolved via PATH.
	badgingTool = "aapt"

	// defaultCommandTimeout is the timeout for a single tool invocation.
	defaultCommandTimeout = 2 * time.Minute
)

var (
	// ErrToolNotFound is returned when the required inspection tool is not available.
	ErrToolNotFound = errors.New("inspection tool not found")
	// ErrToolExecutionFailed is returned when the inspection tool exits non-zero.
	ErrToolExecutionFailed = errors.New("inspection tool execution failed")
	// ErrUnsupportedArtifact is returned for files that are neither APKs nor bundles.
	ErrUnsupportedArtifact = errors.New("unsupported artifact type")
)

// NewExtractor creates an extractor using the provided bundle tool resolver.
func NewExtractor(bundleTool ToolResolver) *Extractor {
	return &Extractor{
		bundleTool:     bundleTool,
		commandTimeout: defaultCommandTimeout,
	}
}

// Extract runs the inspection tool for the artifact's format and builds
// the package info. Extraction has no side effects; re-running it on
// the same file yields the same result.
func (e *Extractor) Extract(ctx context.Context, path string) (*release.PackageInfo, error) {
	tool, args, parser, err := e.commandFor(ctx, path)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Reading package manifest", "tool", tool, "artifact", path)

	output, err := e.runTool(ctx, tool, args)
	if err != nil {
		return nil, err
	}

	fields, err := parser.Parse(output)
	if err != nil {
		return nil, err
	}

	return &release.PackageInfo{
		AppID:       fields.AppID,
		VersionName: fields.VersionName,
		VersionCode: fields.VersionCode,
		Path:        path,
	}, nil
}

// commandFor resolves the tool, argument set and parser for the artifact format.
func (e *Extractor) commandFor(ctx context.Context, path string) (string, []string, Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".apk":
		tool, err := exec.LookPath(badgingTool)
		if err != nil {
			return "", nil, nil, fmt.Errorf("%s: %w", badgingTool, ErrToolNotFound)
		}

		return tool, []string{"dump", "badging", path}, badgingParser{}, nil
	case ".aab":
		tool, err := e.bundleTool.Resolve(ctx)
		if err != nil {
			return "", nil, nil, err
		}

		return tool, []string{"dump", "manifest", "--bundle", path}, bundleParser{}, nil
	default:
		return "", nil, nil, fmt.Errorf("%s: %w", path, ErrUnsupportedArtifact)
	}
}

// runTool executes the inspection tool and captures its standard output.
// A non-zero exit is fatal and carries the captured output for diagnosis.
func (e *Extractor) runTool(ctx context.Context, tool string, args []string) (string, error) {
	cmdCtx, cancel := context.WithTimeout(ctx, e.commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, tool, args...)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s %s: %s",
				ErrToolExecutionFailed, tool, strings.Join(args, " "),
				strings.TrimSpace(string(exitErr.Stderr)))
		}

		return "", fmt.Errorf("run %s: %w", tool, err)
	}

	return string(output), nil
}

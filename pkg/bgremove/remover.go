// Package bgremove prepares product images: background removal through a
// pluggable strategy (no-op, external command, or HTTP endpoint) followed
// by an alpha-refinement pass. Every failure path falls back to the
// original image; removal never fails the caller.
package bgremove

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/config"
)

// Result is the typed outcome of a removal attempt. Degraded operation is
// normal operation here, so there is no error in the signature.
type Result struct {
	// Path points at the processed image, or the original when
	// UsedOriginal is set.
	Path         string
	UsedOriginal bool
}

// Remover removes the background from a product image.
type Remover interface {
	Remove(ctx context.Context, imagePath string) Result
}

// New builds the remover selected by configuration.
func New(cfg config.RemovalConfig, workDir string, logger *zap.Logger) Remover {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	switch cfg.Mode {
	case "command":
		return &commandRemover{argv: cfg.Command, workDir: workDir, timeout: timeout, logger: logger}
	case "http":
		client := resty.New().SetTimeout(timeout).SetRetryCount(1)
		return &httpRemover{client: client, endpoint: cfg.Endpoint, apiKey: cfg.APIKey, workDir: workDir, logger: logger}
	default:
		return noopRemover{}
	}
}

type noopRemover struct{}

func (noopRemover) Remove(_ context.Context, imagePath string) Result {
	return Result{Path: imagePath, UsedOriginal: true}
}

// commandRemover shells out to a CLI tool (e.g. rembg). The argv template
// replaces {in} and {out} with the input and output paths.
type commandRemover struct {
	argv    []string
	workDir string
	timeout time.Duration
	logger  *zap.Logger
}

func (r *commandRemover) Remove(ctx context.Context, imagePath string) Result {
	outPath, err := outputPath(r.workDir, imagePath)
	if err != nil {
		r.logger.Warn("Background removal output path unavailable, using original", zap.Error(err))
		return Result{Path: imagePath, UsedOriginal: true}
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	argv := make([]string, len(r.argv))
	for i, a := range r.argv {
		a = strings.ReplaceAll(a, "{in}", imagePath)
		a = strings.ReplaceAll(a, "{out}", outPath)
		argv[i] = a
	}
	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		r.logger.Warn("Background removal command failed, using original",
			zap.Strings("argv", argv), zap.ByteString("output", out), zap.Error(err))
		return Result{Path: imagePath, UsedOriginal: true}
	}
	if _, err := os.Stat(outPath); err != nil {
		r.logger.Warn("Background removal command produced no output, using original",
			zap.String("path", outPath))
		return Result{Path: imagePath, UsedOriginal: true}
	}
	return refine(outPath, imagePath, r.logger)
}

// httpRemover posts the image to a removal endpoint and stores the
// returned cutout.
type httpRemover struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	workDir  string
	logger   *zap.Logger
}

func (r *httpRemover) Remove(ctx context.Context, imagePath string) Result {
	outPath, err := outputPath(r.workDir, imagePath)
	if err != nil {
		r.logger.Warn("Background removal output path unavailable, using original", zap.Error(err))
		return Result{Path: imagePath, UsedOriginal: true}
	}

	req := r.client.R().
		SetContext(ctx).
		SetFile("image", imagePath).
		SetOutput(outPath)
	if r.apiKey != "" {
		req.SetHeader("X-Api-Key", r.apiKey)
	}
	resp, err := req.Post(r.endpoint)
	if err != nil {
		r.logger.Warn("Background removal request failed, using original",
			zap.String("endpoint", r.endpoint), zap.Error(err))
		return Result{Path: imagePath, UsedOriginal: true}
	}
	if resp.StatusCode() != 200 {
		r.logger.Warn("Background removal endpoint returned non-200, using original",
			zap.Int("status", resp.StatusCode()))
		return Result{Path: imagePath, UsedOriginal: true}
	}
	return refine(outPath, imagePath, r.logger)
}

// refine runs the alpha-refinement pass over a removal output, falling
// back to the original image if the output cannot be processed.
func refine(processedPath, originalPath string, logger *zap.Logger) Result {
	img, err := imaging.Open(processedPath)
	if err != nil {
		logger.Warn("Failed to open removal output, using original",
			zap.String("path", processedPath), zap.Error(err))
		return Result{Path: originalPath, UsedOriginal: true}
	}
	refined := RefineAlpha(imaging.Clone(img))
	if err := imaging.Save(refined, processedPath); err != nil {
		logger.Warn("Failed to save refined cutout, using unrefined output",
			zap.String("path", processedPath), zap.Error(err))
	}
	return Result{Path: processedPath}
}

func outputPath(workDir, imagePath string) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create removal work dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
	return filepath.Join(workDir, base+"_cutout.png"), nil
}

package converter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourorg/go-convert-kit/pkg/config"
	kiterrors "github.com/yourorg/go-convert-kit/pkg/errors"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/logging"
	"github.com/yourorg/go-convert-kit/pkg/utils"
)

// Converter is the conversion dispatcher. It owns the single-in-flight
// guard: one instance processes at most one conversion at a time, and a
// second call while one is active fails immediately with a busy error
// rather than queueing. Instances are explicitly constructed and passed by
// reference; there is no package-level singleton.
type Converter struct {
	cfg      *config.Config
	logger   logging.Logger
	caps     Capabilities
	validate *validator.Validate

	mu   sync.Mutex
	busy bool
}

// New creates a converter with the production capabilities. A nil config
// uses defaults; a nil logger discards logs.
func New(cfg *config.Config, logger logging.Logger) *Converter {
	return NewWithCapabilities(cfg, logger, DefaultCapabilities())
}

// NewWithCapabilities creates a converter with caller-supplied collaborators.
// Tests use this to substitute fakes for the rendering libraries.
func NewWithCapabilities(cfg *config.Config, logger logging.Logger, caps Capabilities) *Converter {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		cfg:      cfg,
		logger:   logger,
		caps:     caps,
		validate: validator.New(),
	}
}

// Convert converts a single file to the requested output format and returns
// the produced artifacts. onProgress may be nil. opts may be nil to use the
// configured defaults. On any failure no artifacts are returned: multi-page
// pipelines are all-or-nothing.
func (c *Converter) Convert(ctx context.Context, file File, output format.Format, onProgress ProgressFunc, opts *Options) ([]Artifact, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	logger := c.logger.With(
		logging.NewField("conversion_id", utils.GenerateConversionID()),
		logging.NewField("file", file.Name),
		logging.NewField("output_format", string(output)),
	)
	start := time.Now()

	if err := c.Validate(file, output); err != nil {
		logger.Warn("conversion rejected", logging.NewField("error", err))
		return nil, err
	}

	input, _ := format.Detect(file.MIMEType, file.Name)
	route, err := format.Resolve(input, output)
	if err != nil {
		return nil, err
	}

	resolved, err := c.resolveOptions(opts)
	if err != nil {
		logger.Warn("conversion rejected", logging.NewField("error", err))
		return nil, err
	}

	logger = logger.With(logging.NewField("pipeline", route.Kind.String()))
	ctx = logging.WithLogger(ctx, logger)
	tr := newTracker(onProgress)

	var artifacts []Artifact
	switch route.Kind {
	case format.PipelinePDFToImage:
		artifacts, err = c.runPDFToImage(ctx, file, output, resolved, tr)
	case format.PipelineOfficeToPDF:
		artifacts, err = c.runOfficeToPDF(ctx, file, output, resolved, tr)
	case format.PipelineImageToImage:
		artifacts, err = c.runImageToImage(ctx, file, input, output, resolved, tr)
	case format.PipelineImageSetToPDF:
		artifacts, err = c.runImageSetToPDF(ctx, []File{file}, resolved, tr)
	default:
		err = kiterrors.NewUnsupportedRouteError(string(input), string(output))
	}

	if err != nil {
		logger.Error("conversion failed",
			logging.NewField("error", err),
			logging.NewField("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	tr.report(100, "Conversion complete")
	logger.Info("conversion finished",
		logging.NewField("artifacts", len(artifacts)),
		logging.NewField("duration_ms", time.Since(start).Milliseconds()),
	)
	return artifacts, nil
}

// ConvertImageSet converts an ordered set of images into a single PDF with
// one page per image. Returns exactly one artifact on success.
func (c *Converter) ConvertImageSet(ctx context.Context, files []File, onProgress ProgressFunc, opts *Options) ([]Artifact, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}
	defer c.release()

	logger := c.logger.With(
		logging.NewField("conversion_id", utils.GenerateConversionID()),
		logging.NewField("files", len(files)),
		logging.NewField("pipeline", format.PipelineImageSetToPDF.String()),
	)
	start := time.Now()

	if len(files) == 0 {
		err := kiterrors.NewValidationError("no files provided")
		logger.Warn("conversion rejected", logging.NewField("error", err))
		return nil, err
	}
	for _, f := range files {
		if in, ok := format.Detect(f.MIMEType, f.Name); !ok || !in.IsImage() {
			err := kiterrors.NewValidationError(fmt.Sprintf("file %q is not an image", f.Name))
			logger.Warn("conversion rejected", logging.NewField("error", err))
			return nil, err
		}
		if err := c.Validate(f, format.PDF); err != nil {
			logger.Warn("conversion rejected",
				logging.NewField("file", f.Name),
				logging.NewField("error", err),
			)
			return nil, err
		}
	}

	resolved, err := c.resolveOptions(opts)
	if err != nil {
		logger.Warn("conversion rejected", logging.NewField("error", err))
		return nil, err
	}

	ctx = logging.WithLogger(ctx, logger)
	tr := newTracker(onProgress)

	artifacts, err := c.runImageSetToPDF(ctx, files, resolved, tr)
	if err != nil {
		logger.Error("conversion failed",
			logging.NewField("error", err),
			logging.NewField("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	tr.report(100, "Conversion complete")
	logger.Info("conversion finished",
		logging.NewField("duration_ms", time.Since(start).Milliseconds()),
	)
	return artifacts, nil
}

// Validate checks a file against the converter's constraints without
// converting it. target may be empty to skip the compatibility check.
// Checks run in order and the first failure short-circuits with a message
// naming the violated constraint.
func (c *Converter) Validate(file File, target format.Format) error {
	if file.Name == "" && len(file.Data) == 0 {
		return kiterrors.NewValidationError("no file provided")
	}

	input, ok := format.Detect(file.MIMEType, file.Name)
	if !ok || !format.Supported(input) {
		return kiterrors.NewValidationError(fmt.Sprintf("unsupported file format for %q", file.Name))
	}

	if target != "" && !format.Allowed(input, target) {
		return kiterrors.NewUnsupportedRouteError(string(input), string(target))
	}

	if int64(len(file.Data)) > c.cfg.MaxFileSizeBytes() {
		return kiterrors.NewValidationError(
			fmt.Sprintf("file size %d exceeds the %dMB limit", len(file.Data), c.cfg.MaxFileSizeMB))
	}

	if len(file.Data) == 0 {
		return kiterrors.NewValidationError("file is empty")
	}

	return nil
}

// SupportedRoutes returns a copy of the compatibility matrix.
func (c *Converter) SupportedRoutes() map[format.Format][]format.Format {
	return format.Routes()
}

// Busy reports whether a conversion is currently in flight.
func (c *Converter) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Cancel clears the in-flight guard. It does not interrupt a pipeline stage
// already suspended inside an external decode or render call; that stage
// runs to completion or its own error. Callers that need hard cancellation
// between stages should cancel the context passed to Convert instead.
func (c *Converter) Cancel() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	c.logger.Info("conversion canceled")
}

// acquire transitions Idle -> Busy, failing when already busy.
func (c *Converter) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return kiterrors.NewBusyError()
	}
	c.busy = true
	return nil
}

// release transitions back to Idle. Runs on every exit path so the
// dispatcher stays usable after failures.
func (c *Converter) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// resolveOptions fills zero fields from configured defaults and validates
// the result.
func (c *Converter) resolveOptions(opts *Options) (Options, error) {
	resolved := Options{}
	if opts != nil {
		resolved = *opts
	}
	if resolved.Scale == 0 {
		resolved.Scale = c.cfg.DefaultRenderScale
	}
	if resolved.Quality == 0 {
		resolved.Quality = c.cfg.DefaultImageQuality
	}
	if resolved.PageSize == "" {
		resolved.PageSize = c.cfg.DefaultPageSize
	}

	if err := c.validate.Struct(resolved); err != nil {
		return Options{}, kiterrors.NewValidationError("invalid conversion options: " + err.Error())
	}
	return resolved, nil
}

// Command convert-cli converts documents and images from the command line.
//
// Usage:
//
//	convert-cli -to png [-out dir] [-merge] [flags] file...
//
// Each input file is converted to the target format and the resulting
// artifacts are written next to each other in the output directory. With
// -merge, all inputs must be images and are combined into a single PDF.
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/yourorg/go-convert-kit/pkg/config"
	"github.com/yourorg/go-convert-kit/pkg/converter"
	"github.com/yourorg/go-convert-kit/pkg/format"
	"github.com/yourorg/go-convert-kit/pkg/logging"
)

func main() {
	var (
		to         = flag.String("to", "", "target format: pdf, png, jpg or webp")
		outDir     = flag.String("out", ".", "directory to write artifacts into")
		merge      = flag.Bool("merge", false, "combine all input images into one PDF")
		scale      = flag.Float64("scale", 0, "PDF render scale (0 uses the configured default)")
		quality    = flag.Float64("quality", 0, "lossy encode quality 0-1 (0 uses the configured default)")
		pageSize   = flag.String("page-size", "", "PDF page size: A4, Letter or Legal")
		configFile = flag.String("config", "", "optional JSON or YAML config file")
		quiet      = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()

	if err := run(*to, *outDir, *merge, *scale, *quality, *pageSize, *configFile, *quiet, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(to, outDir string, merge bool, scale, quality float64, pageSize, configFile string, quiet bool, paths []string) error {
	if to == "" && !merge {
		return fmt.Errorf("-to is required (or use -merge for images-to-PDF)")
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files given")
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	logger := logging.NewLoggerFromConfig(cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync(logger)

	conv := converter.New(cfg, logger)

	output := format.Format(to)
	opts := &converter.Options{Scale: scale, Quality: quality, PageSize: pageSize}

	var onProgress converter.ProgressFunc
	if !quiet {
		onProgress = func(percent int, message string) {
			fmt.Fprintf(os.Stderr, "\r%3d%% %-40s", percent, message)
			if percent == 100 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	ctx := context.Background()

	if merge {
		files := make([]converter.File, 0, len(paths))
		for _, p := range paths {
			f, err := readFile(p)
			if err != nil {
				return err
			}
			files = append(files, f)
		}
		artifacts, err := conv.ConvertImageSet(ctx, files, onProgress, opts)
		if err != nil {
			return err
		}
		return writeArtifacts(outDir, artifacts)
	}

	for _, p := range paths {
		f, err := readFile(p)
		if err != nil {
			return err
		}
		artifacts, err := conv.Convert(ctx, f, output, onProgress, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		if err := writeArtifacts(outDir, artifacts); err != nil {
			return err
		}
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfigFromFile(path)
	}
	return config.LoadConfigFromEnv()
}

func readFile(path string) (converter.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return converter.File{}, err
	}
	return converter.File{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(filepath.Ext(path)),
		Data:     data,
	}, nil
}

func writeArtifacts(dir string, artifacts []converter.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, a := range artifacts {
		dest := filepath.Join(dir, a.Name)
		if err := os.WriteFile(dest, a.Data, 0o644); err != nil {
			return err
		}
		fmt.Println(dest)
	}
	return nil
}

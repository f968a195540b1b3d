package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/pkg/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTransformCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transform [files...]",
		Short: "Rewrite variable dynamic imports in the given modules",
		Long: `Rewrite every variable dynamic import of the given modules and write the
results to the output directory, keeping their paths relative to the current
directory. Modules without variable imports are copied unchanged.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			workingDir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			return transformFiles(cmd.Context(), cfg, workingDir, args, newLogger(cfg, os.Stderr))
		},
	}

	flags := cmd.Flags()
	flags.StringSlice("include", nil, "only transform modules matching these glob patterns")
	flags.StringSlice("exclude", nil, "never transform modules matching these glob patterns")
	flags.Bool("warn-on-error", false, "report unsupported imports as warnings and leave them alone")
	flags.String("outdir", "out", "output directory")
	flags.String("sourcemap", "linked", "source map mode (none, inline, linked, external)")
	flags.IntP("jobs", "j", 8, "number of modules transformed in parallel")
	flags.Int("dir-cache-size", 1024, "number of directory listings kept in memory (0 to disable)")
	flags.String("log-level", "warning", "diagnostic log level (debug, info, warning, error, silent)")
	flags.String("color", "auto", "colored diagnostics (auto, never, always)")
	return cmd
}

func newLogger(cfg *Config, w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "denopack"})
	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	case "silent":
		logger.SetLevel(log.FatalLevel)
	default:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

type transformStats struct {
	rewritten atomic.Int32
	copied    atomic.Int32
	failed    atomic.Int32
}

// transformFiles stops early only for I/O errors. Modules with diagnostics
// are reported and counted, and the other modules still get written.
func transformFiles(ctx context.Context, cfg *Config, workingDir string, files []string, logger *log.Logger) error {
	start := time.Now()
	sourceMapMode, err := config.ParseSourceMap(cfg.SourceMap)
	if err != nil {
		return err
	}
	logLevel, err := cfg.apiLogLevel()
	if err != nil {
		return err
	}
	color, err := cfg.apiColor()
	if err != nil {
		return err
	}

	plugin, err := api.DynamicImportVars(api.DynamicImportVarsOptions{
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
		WarnOnError:  cfg.WarnOnError,
		WorkingDir:   workingDir,
		DirCacheSize: cfg.DirCacheSize,
		LogLevel:     logLevel,
		Color:        color,
	})
	if err != nil {
		return err
	}

	var stats transformStats
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return transformFile(plugin, cfg, sourceMapMode, workingDir, file, logger, &stats)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("Finished",
		"rewritten", stats.rewritten.Load(),
		"copied", stats.copied.Load(),
		"failed", stats.failed.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond))

	if failed := stats.failed.Load(); failed > 0 {
		return fmt.Errorf("%d of %d modules failed", failed, len(files))
	}
	return nil
}

func transformFile(plugin api.Plugin, cfg *Config, mode config.SourceMap, workingDir string, file string, logger *log.Logger, stats *transformStats) error {
	id := file
	if !filepath.IsAbs(id) {
		id = filepath.Join(workingDir, id)
	}
	id = filepath.Clean(id)

	contents, err := os.ReadFile(id)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	result := plugin.Transform(string(contents), id)
	if len(result.Errors) > 0 {
		stats.failed.Add(1)
		logger.Error("Failed to transform", "path", file, "errors", len(result.Errors))
		return nil
	}

	outPath := outputPath(cfg.OutDir, workingDir, id)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if result.Code == nil {
		stats.copied.Add(1)
		if err := os.WriteFile(outPath, contents, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		logger.Debug("Copied", "path", outPath, "size", humanize.Bytes(uint64(len(contents))))
		return nil
	}

	stats.rewritten.Add(1)
	code, mapFile := attachSourceMap(mode, outPath, *result.Code, *result.Map)
	if err := os.WriteFile(outPath, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if mapFile != "" {
		if err := os.WriteFile(outPath+".map", []byte(mapFile), 0o644); err != nil {
			return fmt.Errorf("write %s.map: %w", outPath, err)
		}
	}
	logger.Info("Rewrote", "path", outPath, "size", humanize.Bytes(uint64(len(code))), "warnings", len(result.Warnings))
	return nil
}

// outputPath keeps the module's path relative to the working directory.
// Modules outside of it are written to the top of the output directory.
func outputPath(outDir string, workingDir string, id string) string {
	rel, err := filepath.Rel(workingDir, id)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(id)
	}
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(workingDir, outDir)
	}
	return filepath.Join(outDir, rel)
}

// attachSourceMap returns the code to write and the contents of the ".map"
// file, which is empty when no such file should be written.
func attachSourceMap(mode config.SourceMap, outPath string, code string, sourceMap string) (string, string) {
	switch mode {
	case config.SourceMapInline:
		return withComment(code, "data:application/json;base64,"+base64.StdEncoding.EncodeToString([]byte(sourceMap))), ""
	case config.SourceMapLinkedWithComment:
		return withComment(code, filepath.Base(outPath)+".map"), sourceMap
	case config.SourceMapExternalWithoutComment:
		return code, sourceMap
	}
	return code, ""
}

func withComment(code string, url string) string {
	if code != "" && !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return code + "//# sourceMappingURL=" + url + "\n"
}

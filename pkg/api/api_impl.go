package api

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/fs"
	"github.com/ohmlnz/denopack/internal/importvars"
	"github.com/ohmlnz/denopack/internal/logger"
)

const dynamicImportVarsName = "denopack-plugin-dynamicImportVar"

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorIfTerminal:
		return logger.ColorIfTerminal
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		panic("Invalid color")
	}
}

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelSilent:
		return logger.LevelSilent
	case LogLevelDebug:
		return logger.LevelDebug
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	default:
		panic("Invalid log level")
	}
}

func convertLocation(location *logger.MsgLocation) *Location {
	if location == nil {
		return nil
	}
	return &Location{
		File:     location.File,
		Line:     location.Line,
		Column:   location.Column,
		Length:   location.Length,
		LineText: location.LineText,
	}
}

func messagesOfKind(kind logger.MsgKind, msgs []logger.Msg) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind != kind {
			continue
		}
		var notes []Note
		for _, note := range msg.Notes {
			notes = append(notes, Note{Text: note.Text, Location: convertLocation(note.Location)})
		}
		filtered = append(filtered, Message{
			ID:         logger.MsgIDToString(msg.ID),
			PluginName: dynamicImportVarsName,
			Text:       msg.Data.Text,
			Location:   convertLocation(msg.Data.Location),
			Notes:      notes,
		})
	}
	return filtered
}

type dynamicImportVars struct {
	fs         fs.FS
	filter     config.Filter
	workingDir string
	warnOnErr  bool

	// This is nil when messages are only returned, never printed
	stderr *logger.Log
}

func dynamicImportVarsImpl(options DynamicImportVarsOptions) (Plugin, error) {
	logLevel := validateLogLevel(options.LogLevel)
	color := validateColor(options.Color)

	var fsys fs.FS
	if options.FS != nil {
		fsys = fs.FromFS(options.FS)
	} else {
		fsys = fs.RealFS()
	}
	if options.DirCacheSize > 0 {
		cached, err := fs.NewCachedFS(fsys, options.DirCacheSize)
		if err != nil {
			return nil, fmt.Errorf("cannot create directory cache: %w", err)
		}
		fsys = cached
	}

	workingDir := options.WorkingDir
	if workingDir == "" {
		workingDir = fsys.Cwd()
	} else if abs, ok := fsys.Abs(workingDir); ok {
		workingDir = abs
	}

	filter, err := config.NewFilter(config.Options{
		Include:    options.Include,
		Exclude:    options.Exclude,
		WorkingDir: workingDir,
	})
	if err != nil {
		return nil, err
	}

	plugin := &dynamicImportVars{
		fs:         fsys,
		filter:     filter,
		workingDir: workingDir,
		warnOnErr:  options.WarnOnError,
	}
	if logLevel != logger.LevelSilent {
		stderr := logger.NewStderrLog(logger.StderrOptions{
			IncludeSource: true,
			Color:         color,
			LogLevel:      logLevel,
		})
		plugin.stderr = &stderr
	}
	return plugin, nil
}

func (p *dynamicImportVars) Name() string {
	return dynamicImportVarsName
}

func (p *dynamicImportVars) prettyPath(id string) string {
	if rel, err := filepath.Rel(p.workingDir, id); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(id)
}

func (p *dynamicImportVars) Transform(code string, id string) TransformResult {
	if !p.filter.Match(id) {
		return TransformResult{}
	}

	log := logger.NewDeferLog()
	source := logger.Source{
		KeyPath:    id,
		PrettyPath: p.prettyPath(id),
		Contents:   code,
	}
	result := importvars.Transform(log, source, importvars.Options{
		FS:          p.fs,
		WarnOnError: p.warnOnErr,
	})

	msgs := log.Done()
	if p.stderr != nil {
		for _, msg := range msgs {
			p.stderr.AddMsg(msg)
		}
	}

	transformResult := TransformResult{
		Errors:   messagesOfKind(logger.Error, msgs),
		Warnings: messagesOfKind(logger.Warning, msgs),
	}
	if result.Status == importvars.Rewritten {
		sourceMap := string(result.SourceMap.JSON())
		transformResult.Code = &result.Code
		transformResult.Map = &sourceMap
	}
	return transformResult
}

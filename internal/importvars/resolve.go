package importvars

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ohmlnz/denopack/internal/fs"
	"github.com/ohmlnz/denopack/internal/helpers"
	"github.com/ohmlnz/denopack/internal/logger"
)

// CandidateSet holds the relative paths a variable import can resolve to, in
// the order the directory walk found them. Each one starts with "./" or
// "../" and none appears twice.
type CandidateSet []string

// ResolveCandidates lists the files that match a pattern relative to the
// directory of the importing module. Zero matches is not an error. The
// returned error is only for file system failures other than a directory
// that does not exist.
func ResolveCandidates(fsys fs.FS, log logger.Log, source *logger.Source, r logger.Range, importerDir string, pattern GlobPattern) (CandidateSet, error) {
	// Only the part after the last literal directory is matched against the
	// file system. Everything before it is plain text that picks where the
	// walk starts.
	dirPattern, rest := helpers.SplitGlobDir(pattern.String())
	dir := helpers.UnescapeGlob(dirPattern)
	searchDir := fsys.Join(importerDir, dir)

	sub, err := fsys.Sub(searchDir)
	if err != nil {
		return nil, fmt.Errorf("cannot search %q: %w", searchDir, err)
	}

	matches, err := doublestar.Glob(sub, rest,
		doublestar.WithFilesOnly(),
		doublestar.WithNoFollow(),
		doublestar.WithFailOnIOErrors())
	if err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return nil, fmt.Errorf("cannot search %q: %w", searchDir, err)
	}

	var candidates CandidateSet
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		if isHiddenMatch(rest, match) {
			continue
		}
		candidate := dir + match
		if !strings.HasPrefix(candidate, "./") && !strings.HasPrefix(candidate, "../") {
			candidate = "./" + candidate
		}
		if !seen[candidate] {
			seen[candidate] = true
			candidates = append(candidates, candidate)
		}
	}

	if len(candidates) == 0 {
		log.AddID(logger.MsgID_Bundler_EmptyGlob, logger.Debug, source, r,
			fmt.Sprintf("The glob pattern %q did not match any files", pattern.Display()))
	}
	return candidates, nil
}

// A wildcard never matches a leading "." of a file or directory name. Hidden
// names are only found when the pattern itself spells out the dot.
func isHiddenMatch(pattern string, match string) bool {
	patternParts := strings.Split(pattern, "/")
	for i, part := range strings.Split(match, "/") {
		if strings.HasPrefix(part, ".") && (i >= len(patternParts) || !strings.HasPrefix(patternParts[i], ".")) {
			return true
		}
	}
	return false
}

package test

import (
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff renders a line-by-line diff between two strings. Removed lines start
// with "-", added lines with "+" and unchanged lines with a space.
func Diff(old string, new string, useColor bool) string {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)

	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{red, green, dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var result []string
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		for _, line := range strings.Split(text, "\n") {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				result = append(result, red.Sprint("-"+line))
			case diffmatchpatch.DiffInsert:
				result = append(result, green.Sprint("+"+line))
			default:
				result = append(result, dim.Sprint(" "+line))
			}
		}
	}
	return strings.Join(result, "\n")
}

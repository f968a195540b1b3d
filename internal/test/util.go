package test

import (
	"fmt"
	"os"
	"testing"

	"github.com/ohmlnz/denopack/internal/logger"
)

func AssertEqual(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		t.Fatalf("%s != %s", observed, expected)
	}
}

func AssertEqualWithDiff(t *testing.T, observed interface{}, expected interface{}) {
	t.Helper()
	if observed != expected {
		stringA := fmt.Sprintf("%v", observed)
		stringB := fmt.Sprintf("%v", expected)
		useColor := logger.GetTerminalInfo(os.Stdout).UseColorEscapes
		t.Fatal("\n" + Diff(stringB, stringA, useColor))
	}
}

func SourceForTest(contents string) logger.Source {
	return logger.Source{
		KeyPath:    "/entry.js",
		PrettyPath: "entry.js",
		Contents:   contents,
	}
}

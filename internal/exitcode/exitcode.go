package exitcode

import (
	"errors"
	"os"
)

const (
	// Some module had errors. Every other module was still written.
	ModulesFailed = 1

	// Nothing was transformed because the command line or config file was
	// invalid
	InvalidConfig = 2
)

// Coder is an error that knows which exit code it should produce.
type Coder interface {
	error
	ExitCode() int
}

// Get returns 0 for nil, the code of the first Coder in the error chain, or
// "ModulesFailed" for anything else.
func Get(err error) int {
	if err == nil {
		return 0
	}
	if coder := Coder(nil); errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ModulesFailed
}

// Set attaches an exit code to an error without changing its message.
func Set(err error, code int) error {
	if err == nil {
		return nil
	}
	return coder{err, code}
}

var _ Coder = coder{}

type coder struct {
	error
	code int
}

func (c coder) ExitCode() int {
	return c.code
}

func (c coder) Unwrap() error {
	return c.error
}

func Exit(err error) {
	os.Exit(Get(err))
}

// Package main provides the denopack command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/ohmlnz/denopack/internal/exitcode"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "denopack",
		Short: "Rewrites variable dynamic imports so bundlers can follow them",
		Long: `denopack turns "import()" expressions whose path is only partly known at
build time into calls to a generated function that lists every matching file.

Commands:
  transform  Rewrite modules into an output directory`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is ./.denopack.yaml)")
	rootCmd.AddCommand(newTransformCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitcode.Exit(err)
	}
}

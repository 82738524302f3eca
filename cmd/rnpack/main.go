package main

import (
	"os"

	"github.com/rnpack/packager/internal/logger"
	"github.com/spf13/cobra"
)

var rnpackVersion = "0.1.0"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rnpack",
		Short:         "Bundle a module graph into a single runnable script",
		Version:       rnpackVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(newBundleCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// Errors from the bundle command have already been logged
		if err != errAlreadyLogged {
			logger.PrintErrorToStderr(os.Args[1:], err.Error())
		}
		os.Exit(1)
	}
}

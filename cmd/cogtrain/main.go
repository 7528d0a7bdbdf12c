// Command cogtrain runs the adaptive cognitive training service and its
// operator tools.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCMD().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCMD() *cobra.Command {
	root := &cobra.Command{
		Use:           "cogtrain",
		Short:         "Adaptive cognitive training service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCMD(), planCMD(), simulateCMD(), migrateCMD())
	return root
}

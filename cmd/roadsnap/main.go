// Command roadsnap closes endpoint gaps in road centerline networks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/roadsnap/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

// Command agentctl operates the agent-side telemetry pipeline from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/monitoragent/telemetry-pipeline/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

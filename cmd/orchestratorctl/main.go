// Command orchestratorctl is an operator CLI for talking to a running
// orchestratord instance over its Streamable HTTP transport.
package main

import (
	"fmt"
	"os"

	"github.com/emergent-company/orchestrator/cmd/orchestratorctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

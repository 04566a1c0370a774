package main

import (
	"os"

	"github.com/orris-inc/autopay/internal/interfaces/cli/agent"
	"github.com/orris-inc/autopay/internal/shared/version"
)

func main() {
	cmd := agent.NewCommand()
	cmd.Use = "autopay-agent"
	cmd.Version = version.Get().Version

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

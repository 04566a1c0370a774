package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/orris-inc/autopay/internal/interfaces/cli/agent"
	"github.com/orris-inc/autopay/internal/interfaces/cli/events"
	"github.com/orris-inc/autopay/internal/interfaces/cli/migrate"
	"github.com/orris-inc/autopay/internal/interfaces/cli/server"
	"github.com/orris-inc/autopay/internal/interfaces/cli/token"
	"github.com/orris-inc/autopay/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "autopay",
		Short:   "Autopay - recurring payment authorization engine",
		Long:    `Autopay lets payers authorize recurring payments to merchants and lets attested workers execute them when due.`,
		Version: version.Get().Version,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
		events.NewCommand(),
		agent.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package token

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/orris-inc/autopay/internal/infrastructure/auth"
	"github.com/orris-inc/autopay/internal/infrastructure/config"
)

var (
	env        string
	configPath string
	principal  string
	ttl        time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "API access token tools",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(newIssueCommand())

	return cmd
}

func newIssueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an API access token",
		Long:  `Sign a bearer token for a principal (an owner, payer or worker account) with the configured JWT secret.`,
		RunE:  runIssue,
	}

	cmd.Flags().StringVarP(&principal, "principal", "p", "", "Account the token authenticates (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: auth.jwt.exp_minutes)")
	_ = cmd.MarkFlagRequired("principal")

	return cmd
}

func runIssue(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jwtCfg := cfg.Auth.JWT
	issued, err := auth.NewJWTService(jwtCfg.Secret, jwtCfg.Issuer, jwtCfg.ExpMinutes, nil).Generate(principal, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", issued.ExpiresAt.UTC().Format(time.RFC3339))
	return nil
}

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	agentApp "github.com/orris-inc/autopay/internal/application/agent"
	"github.com/orris-inc/autopay/internal/infrastructure/config"
	"github.com/orris-inc/autopay/internal/infrastructure/scheduler"
	"github.com/orris-inc/autopay/internal/shared/biztime"
	sharedConfig "github.com/orris-inc/autopay/internal/shared/config"
	"github.com/orris-inc/autopay/internal/shared/logger"
	"github.com/orris-inc/autopay/internal/shared/version"
	sdk "github.com/orris-inc/autopay/sdk/agent"
)

var (
	env        string
	configPath string
	once       bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the payment worker",
		Long: `Register with the autopay server using the worker's attestation, then
periodically charge every due subscription the worker holds a delegated key for.`,
		RunE: run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single sweep and exit")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
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

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger().Named("agent")

	if err := biztime.Init(cfg.Engine.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	agentCfg := cfg.Agent
	if agentCfg.Token == "" {
		return errors.New("agent.token is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := sdk.NewClient(agentCfg.BaseURL, agentCfg.Token, sdk.WithTimeout(agentCfg.Timeout()))

	checkVersion(ctx, client, log)

	if err := register(ctx, client, &agentCfg, log); err != nil {
		return err
	}

	keys, err := sdk.LoadKeyring(agentCfg.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load keyring: %w", err)
	}
	log.Infow("keyring loaded", "subscriptions", len(keys.Subscriptions()))

	sweeper := agentApp.NewSweeper(client, keys, agentCfg.BatchSize, agentCfg.Concurrency, log.Named("sweeper"))

	if once {
		report, err := sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "due=%d processed=%d rejected=%d skipped=%d failed=%d\n",
			report.Due, report.Processed, report.Rejected, report.Skipped, report.Failed)
		return nil
	}

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterPaymentSweep(sweeper, agentCfg.Interval(), agentCfg.Timeout()); err != nil {
		return fmt.Errorf("failed to register payment sweep: %w", err)
	}

	manager.Start()
	log.Infow("agent started",
		"server", agentCfg.BaseURL,
		"interval", agentCfg.Interval(),
		"concurrency", agentCfg.Concurrency,
	)

	<-ctx.Done()

	log.Infow("shutting down agent...")
	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
		return err
	}
	log.Infow("agent exited gracefully")
	return nil
}

// checkVersion warns when the server's major version differs from the agent's.
func checkVersion(ctx context.Context, client *sdk.Client, log logger.Interface) {
	info, err := client.Version(ctx)
	if err != nil {
		log.Warnw("failed to fetch server version", "error", err)
		return
	}
	local := version.Get().Version
	if !version.SameMajor(local, info.Version) {
		log.Warnw("server major version differs from agent",
			"agent_version", local,
			"server_version", info.Version,
		)
	}
}

// register presents the attestation from the quote file and reports whether
// the codehash is approved. An unapproved worker keeps running: its sweeps are
// rejected until the owner approves the codehash.
func register(ctx context.Context, client *sdk.Client, cfg *sharedConfig.AgentConfig, log logger.Interface) error {
	if cfg.QuoteFile == "" {
		log.Warnw("no quote file configured, skipping registration")
	} else {
		data, err := os.ReadFile(cfg.QuoteFile)
		if err != nil {
			return fmt.Errorf("failed to read quote file: %w", err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("quote file %s is not valid JSON", cfg.QuoteFile)
		}

		registered, err := client.RegisterWorker(ctx, sdk.RegisterWorkerRequest{
			Quote:       json.RawMessage(data),
			TrustAnchor: cfg.TrustAnchor,
			Checksum:    cfg.Checksum,
			Codehash:    cfg.Codehash,
		})
		if err != nil {
			return err
		}
		if !registered {
			return errors.New("attestation was rejected by the server")
		}
		log.Infow("worker registered", "codehash", cfg.Codehash, "checksum", cfg.Checksum)
	}

	approved, err := client.IsApproved(ctx)
	if err != nil {
		return err
	}
	if !approved {
		log.Warnw("worker codehash is not approved yet", "codehash", cfg.Codehash)
	}
	return nil
}

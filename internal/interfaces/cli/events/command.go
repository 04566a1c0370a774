package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/orris-inc/autopay/internal/infrastructure/config"
	"github.com/orris-inc/autopay/internal/infrastructure/pubsub"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

var (
	env        string
	configPath string
	channel    string
	eventType  string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail relayed domain events",
		Long:  `Subscribe to the Redis channel the server relays domain events to and print each one as a JSON line.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVar(&channel, "channel", pubsub.DefaultEventChannel, "Redis channel to subscribe to")
	cmd.Flags().StringVarP(&eventType, "type", "t", "", "Only print events of this type (e.g. payment.processed)")

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
	log := logger.NewLogger()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("tailing domain events", "address", cfg.Redis.GetAddr(), "channel", channel)

	enc := json.NewEncoder(cmd.OutOrStdout())
	bus := pubsub.NewRedisEventBus(client, channel, log)
	err = bus.Subscribe(ctx, func(_ context.Context, e pubsub.EventEnvelope) {
		if eventType != "" && e.EventType != eventType {
			return
		}
		if err := enc.Encode(e); err != nil {
			log.Warnw("failed to write event", "event_id", e.EventID, "error", err)
		}
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("subscription ended: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"retirebot/internal/bus"
	"retirebot/internal/channel"
	"retirebot/internal/config"
	"retirebot/internal/domain"
	"retirebot/internal/knowledge"
	"retirebot/internal/orchestrator"
	"retirebot/internal/reasoner"
	"retirebot/internal/router"
	"retirebot/internal/session"
	"retirebot/internal/specialist"
	"retirebot/internal/store"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "retirebot",
		Short: "RetireBot: Medicare, Florida Medicaid, and senior resources assistant",
		Long: "RetireBot answers Medicare, Florida Medicaid, and local senior resource\n" +
			"questions over CLI, web, WebSocket, and Telegram.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.retirebot/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(evalCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

// loadConfig loads the config file, falling back to defaults when it is
// missing so first runs work without `retirebot init`.
func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		return config.Defaults()
	}
	return cfg
}

// setupLogger reconfigures the process logger from the config.
func setupLogger(cfg *config.Config) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		w = f
	}

	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("config already exists at %s", cfgPath)
			}
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

// buildAssistant wires the full turn pipeline from config: store,
// sessions, knowledge providers, reasoner chain, specialists, router,
// orchestrator. The returned store must be closed by the caller.
func buildAssistant(ctx context.Context, cfg *config.Config) (*orchestrator.Orchestrator, domain.SessionStore, error) {
	var sessionStore domain.SessionStore
	switch cfg.Memory.Backend {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Memory.DBPath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		sessionStore = s
	default:
		sessionStore = store.NewMemoryStore()
	}
	sessions := session.NewManager(sessionStore, logger)

	medicareInfo := knowledge.NewMedicareInfo()
	medicaidInfo := knowledge.NewMedicaidInfo()
	if cfg.Knowledge.PackDir != "" {
		err := knowledge.LoadPacks(cfg.Knowledge.PackDir, map[string]*knowledge.TopicProvider{
			medicareInfo.Name(): medicareInfo,
			medicaidInfo.Name(): medicaidInfo,
		}, logger)
		if err != nil {
			sessionStore.Close()
			return nil, nil, fmt.Errorf("knowledge packs: %w", err)
		}
	}

	chain, err := reasoner.NewFactory(cfg, logger).Chain(ctx)
	if err != nil {
		sessionStore.Close()
		return nil, nil, fmt.Errorf("reasoner chain: %w", err)
	}
	logger.Info("reasoner ready", "name", chain.Name())

	opts := specialist.Options{
		Reasoner:    chain,
		Logger:      logger,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
	}
	registry := specialist.NewRegistry(logger,
		specialist.NewGeneral(opts),
		specialist.NewMedicare(medicareInfo, knowledge.NewMedicarePlans(), opts),
		specialist.NewMedicaid(medicaidInfo, knowledge.NewMedicaidEligibility(), opts),
		specialist.NewLocal(knowledge.NewLocalResources(), opts),
	)

	orch := orchestrator.New(orchestrator.Config{
		Sessions: sessions,
		Router: router.New(router.Config{
			ConfidenceThreshold: cfg.Router.ConfidenceThreshold,
			MaxHistoryTurns:     cfg.Router.MaxHistoryTurns,
			Profiles:            cfg.Router.Profiles,
			Logger:              logger,
		}),
		Registry:      registry,
		Logger:        logger,
		Disclaimer:    cfg.Assistant.DisclaimerText,
		Apology:       cfg.Assistant.ApologyText,
		HistoryWindow: cfg.Assistant.HistoryWindow,
		RateBurst:     cfg.General.RateBurst,
		RatePerMinute: cfg.General.RatePerMinute,
	})
	return orch, sessionStore, nil
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := setupLogger(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			orch, sessionStore, err := buildAssistant(ctx, cfg)
			if err != nil {
				return err
			}
			defer sessionStore.Close()

			messageBus := bus.New(16, logger)
			defer messageBus.Close()

			loop := orchestrator.NewLoop(orchestrator.LoopConfig{
				Orchestrator: orch,
				Bus:          messageBus,
				Logger:       logger,
				Concurrency:  cfg.General.MaxConcurrentMessages,
			})
			go loop.Run(ctx)

			cli := channel.NewCLI(channel.CLIConfig{Logger: logger})
			return cli.Start(ctx, messageBus)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show config, reasoner health, and session count",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}

			ctx := context.Background()
			factory := reasoner.NewFactory(cfg, logger)
			r, err := factory.Get(ctx, cfg.General.DefaultReasoner)
			if err != nil {
				logger.Info("reasoner", "name", cfg.General.DefaultReasoner, "healthy", false, "err", err)
			} else if herr := r.Healthy(ctx); herr != nil {
				logger.Info("reasoner", "name", r.Name(), "healthy", false, "err", herr)
			} else {
				logger.Info("reasoner", "name", r.Name(), "healthy", true)
			}

			if cfg.Memory.Backend == "sqlite" {
				s, err := store.NewSQLiteStore(cfg.Memory.DBPath, logger)
				if err != nil {
					logger.Info("sessions", "backend", "sqlite", "err", err)
					return nil
				}
				defer s.Close()
				sessions, err := s.ListSessions(ctx, 0)
				if err != nil {
					logger.Info("sessions", "backend", "sqlite", "err", err)
					return nil
				}
				logger.Info("sessions", "backend", "sqlite", "count", len(sessions), "path", cfg.Memory.DBPath)
			} else {
				logger.Info("sessions", "backend", cfg.Memory.Backend)
			}

			logger.Info("version", "retirebot", version)
			return nil
		},
	}
}

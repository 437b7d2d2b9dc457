package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"docvia-widget/internal/api"
	"docvia-widget/internal/api/middleware"
	"docvia-widget/internal/api/router"
	"docvia-widget/internal/database"
	"docvia-widget/internal/env"
	internaljwt "docvia-widget/internal/jwt"
	"docvia-widget/internal/logger"
	"docvia-widget/internal/model"
	"docvia-widget/internal/queue"
	chatbotservice "docvia-widget/internal/service/chatbot"
)

const apiPrefix = "/api/v1"

func main() {
	root := &cobra.Command{
		Use:           "chatbot-server",
		Short:         "Backend for the embeddable chat widget",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(createAppCmd())
	root.AddCommand(createTablesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (env.Server, zerolog.Logger, error) {
	if err := env.LoadDotEnv(); err != nil {
		return env.Server{}, zerolog.Nop(), err
	}
	cfg, err := env.LoadServer()
	if err != nil {
		return env.Server{}, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.Log, os.Stderr), nil
}

func serveCmd() *cobra.Command {
	var (
		addr     string
		inMemory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat-bot API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			issuer, err := internaljwt.NewIssuer(cfg.SessionSecret, cfg.SessionTTL, nil)
			if err != nil {
				return err
			}

			var service *chatbotservice.Service
			if inMemory {
				service = chatbotservice.NewWithRepository(chatbotservice.NewMemoryRepository(), issuer, nil)
				demo, err := service.CreateApp(ctx, demoApp())
				if err != nil {
					return fmt.Errorf("seed demo app: %w", err)
				}
				log.Warn().Str("app_key", demo.AppKey).Msg("in-memory mode: data is lost on exit")
			} else {
				db, err := database.NewDatabase(ctx, cfg)
				if err != nil {
					return err
				}
				service = chatbotservice.New(db, issuer)
			}

			queueManager := queue.NewRequestQueueManager(cfg.QueueSize, cfg.Workers, log)

			server := api.NewAPIServer(
				api.Options{ListenAddr: cfg.ListenAddr, AllowedOrigins: cfg.AllowedOrigins},
				queueManager,
				log,
				router.UtilsRoutes(apiPrefix),
				router.ChatbotRoutes(apiPrefix, service, middleware.NewRateLimiter(cfg.QueryRate, cfg.QueryBurst)),
			)

			return serve(ctx, server, queueManager)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides "+env.ListenAddr+")")
	cmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep apps and visitors in memory and seed a demo app")
	return cmd
}

type runner interface {
	Run(ctx context.Context) error
}

// serve runs the HTTP server until ctx is cancelled or the server fails. The
// request queue drains alongside the HTTP shutdown either way.
func serve(ctx context.Context, server runner, queueManager *queue.RequestQueueManager) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Run(gctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		queueManager.Shutdown()
		return nil
	})
	return g.Wait()
}

func createAppCmd() *cobra.Command {
	var (
		name          string
		knowledgePath string
		widget        model.WidgetSettings
	)

	cmd := &cobra.Command{
		Use:   "create-app",
		Short: "Register an app and print its application key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			var knowledge []model.KnowledgeEntry
			if knowledgePath != "" {
				raw, err := os.ReadFile(knowledgePath)
				if err != nil {
					return fmt.Errorf("read knowledge file: %w", err)
				}
				if err := json.Unmarshal(raw, &knowledge); err != nil {
					return fmt.Errorf("parse knowledge file: %w", err)
				}
			}

			issuer, err := internaljwt.NewIssuer(cfg.SessionSecret, cfg.SessionTTL, nil)
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			result, err := chatbotservice.New(db, issuer).CreateApp(cmd.Context(), chatbotservice.CreateAppParams{
				Name:      name,
				Widget:    widget,
				Knowledge: knowledge,
			})
			if err != nil {
				return err
			}

			log.Info().Str("app_id", result.App.AppID).Int("knowledge", len(knowledge)).Msg("app created")
			fmt.Fprintln(cmd.OutOrStdout(), result.AppKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "app name")
	cmd.Flags().StringVar(&knowledgePath, "knowledge", "", "JSON file with [{question, answer, keywords}] entries")
	cmd.Flags().StringVar(&widget.AgentName, "agent-name", "", "agent display name")
	cmd.Flags().StringVar(&widget.AgentPhoto, "agent-photo", "", "agent avatar URL")
	cmd.Flags().StringVar(&widget.HeaderColor, "header-color", "", "header background color")
	cmd.Flags().StringVar(&widget.HeaderTextColor, "header-text-color", "", "header text color")
	cmd.Flags().StringVar(&widget.AgentMessageColor, "agent-message-color", "", "agent bubble color")
	cmd.Flags().StringVar(&widget.AgentTextColor, "agent-text-color", "", "agent text color")
	cmd.Flags().StringVar(&widget.VisitorMessageColor, "visitor-message-color", "", "visitor bubble color")
	cmd.Flags().StringVar(&widget.VisitorTextColor, "visitor-text-color", "", "visitor text color")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func createTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-tables",
		Short: "Create the DynamoDB tables the server uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			tables := make([]string, 0, len(model.TableKeys))
			for table := range model.TableKeys {
				tables = append(tables, table)
			}
			sort.Strings(tables)

			for _, table := range tables {
				created, err := db.Client.EnsureTable(cmd.Context(), table, model.TableKeys[table])
				if err != nil {
					return err
				}
				log.Info().Str("table", table).Bool("created", created).Msg("table ready")
			}
			return nil
		},
	}
}

func demoApp() chatbotservice.CreateAppParams {
	return chatbotservice.CreateAppParams{
		Name:   "Demo",
		Widget: model.WidgetSettings{AgentName: "Docvia"},
		Knowledge: []model.KnowledgeEntry{
			{
				Question: "What are your opening hours?",
				Answer:   "We are available Monday to Friday, 9:00 to 17:00.",
				Keywords: []string{"hours", "open", "opening"},
			},
			{
				Question: "How can I contact support?",
				Answer:   "Write to support@example.com and we will get back to you within a day.",
				Keywords: []string{"support", "contact", "email"},
			},
		},
	}
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docvia-widget/internal/conversation"
	"docvia-widget/internal/env"
	"docvia-widget/internal/logger"
	"docvia-widget/internal/session"
	"docvia-widget/internal/widget"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		backendURL string
		appKey     string
		storeKind  string
		storePath  string
	)

	cmd := &cobra.Command{
		Use:           "widget",
		Short:         "Chat with a docvia app from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := env.LoadWidget()
			if err != nil {
				return err
			}
			if backendURL != "" {
				cfg.BackendURL = backendURL
			}
			if appKey != "" {
				cfg.AppKey = appKey
			}
			if storeKind != "" {
				cfg.Store = storeKind
			}
			if storePath != "" {
				cfg.StorePath = storePath
			}

			log := logger.New(cfg.Log, os.Stderr)

			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, store, log, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&backendURL, "backend", "", "backend base URL (overrides "+env.BackendURL+")")
	cmd.Flags().StringVar(&appKey, "app-key", "", "application key (overrides "+env.AppKey+")")
	cmd.Flags().StringVar(&storeKind, "store", "", "client identifier store: memory, file or redis (overrides "+env.StoreKind+")")
	cmd.Flags().StringVar(&storePath, "store-path", "", "file store location (overrides "+env.StorePath+")")
	return cmd
}

func openStore(cfg env.Widget) (session.Store, error) {
	switch strings.ToLower(cfg.Store) {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		return session.NewRedisStore(session.NewRedisClient(cfg.RedisURL, cfg.RedisPass), "docvia:"), nil
	case "file", "":
		path := cfg.StorePath
		if path == "" {
			var err error
			if path, err = session.DefaultFilePath(); err != nil {
				return nil, err
			}
		}
		return session.NewFileStore(path), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func run(ctx context.Context, cfg env.Widget, store session.Store, log zerolog.Logger, in io.Reader, out io.Writer) error {
	client := widget.NewClient(cfg.BackendURL, widget.NewHTTPClient(cfg.HTTPTimeout))
	access := widget.NewAccessClient(client, store, log)

	view := newTerminalView(out)
	ctrl := conversation.New(conversation.Options{
		AppKey:   cfg.AppKey,
		Acquirer: access,
		Querier:  widget.NewQueryClient(client, access, nil),
		Logger:   log,
		OnChange: view.render,
	})
	defer ctrl.Close()

	if err := ctrl.Bootstrap(ctx); err != nil {
		return errors.New("widget unavailable")
	}
	if widgetCfg, ok := ctrl.Widget(); ok {
		view.setConfig(widgetCfg)
	}
	ctrl.Toggle()

	lines := make(chan string)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.TrimSpace(line) {
			case "/quit":
				return nil
			case "/open":
				if !ctrl.IsOpen() {
					ctrl.Toggle()
				}
				continue
			case "/close":
				if ctrl.IsOpen() {
					ctrl.Toggle()
				}
				continue
			}

			if !ctrl.IsOpen() {
				view.hint("panel is closed, type /open")
				continue
			}

			done, err := ctrl.Submit(ctx, line)
			switch {
			case errors.Is(err, conversation.ErrEmptyInput):
				continue
			case err != nil:
				view.hint(err.Error())
				continue
			}

			select {
			case <-done:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Wyydra/huddle/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/memory"
	"github.com/Wyydra/huddle/internal/adapter/driven/persistence/snapshot"
	handler "github.com/Wyydra/huddle/internal/adapter/driving/http"
	"github.com/Wyydra/huddle/internal/config"
	"github.com/Wyydra/huddle/internal/core/domain"
	"github.com/Wyydra/huddle/internal/core/service"
	"github.com/Wyydra/huddle/internal/metrics"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagAddr      string
	flagStaticDir string
	flagSnapshot  string
	flagSeedDemo  bool
)

var demoUsers = []domain.Register{
	{Name: "Тест", Username: "test", Password: "123"},
	{Name: "Тест 1", Username: "test1", Password: "password"},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the signaling server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{
			ListenAddr:   flagAddr,
			StaticDir:    flagStaticDir,
			LogLevel:     flagLogLevel,
			LogFormat:    flagLogFormat,
			SnapshotPath: flagSnapshot,
			SeedDemo:     flagSeedDemo,
		})
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&flagAddr, "addr", "a", "", "listen address (default "+config.DefaultListenAddr+")")
	serveCmd.Flags().StringVar(&flagStaticDir, "static", "", "directory of the browser client (default "+config.DefaultStaticDir+")")
	serveCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "file the record store is loaded from and saved to")
	serveCmd.Flags().BoolVar(&flagSeedDemo, "seed-demo", false, "create the demo accounts test/123 and test1/password")
}

func serve(ctx context.Context, cfg config.Config) error {
	l := config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := memory.NewStore(cfg.HistoryPerChannel)
	if cfg.SnapshotPath != "" {
		if err := snapshot.Load(ctx, cfg.SnapshotPath, store); err != nil {
			return err
		}
		l.Info().Str("path", cfg.SnapshotPath).Msg("Record store loaded")
	}

	accounts := service.NewAccountService(store.Users, store.Groups, store.Friends, cfg.BcryptCost)
	if cfg.SeedDemoUsers {
		for _, u := range demoUsers {
			if err := accounts.EnsureUser(ctx, u); err != nil {
				return err
			}
		}
	}

	m := metrics.New()
	hub := ws.NewHub()
	sb := service.NewSwitchboard(hub, store.Messages, accounts, m)

	wsOpts := handler.WSOptions{
		MaxMessageBytes:   cfg.MaxMessageBytes,
		MessagesPerSecond: cfg.MessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
		PingInterval:      cfg.PingInterval,
		PongWait:          cfg.PongWait,
		WriteWait:         cfg.WriteWait,
		SendQueueSize:     cfg.SendQueueSize,
	}
	h := handler.NewHandler(sb, hub, m, handler.Options{
		StaticDir:  cfg.StaticDir,
		ICEServers: cfg.ICEServers,
		WS:         wsOpts,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.NewRouter(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sb.Run(context.WithoutCancel(gctx))
		return nil
	})

	g.Go(func() error {
		l.Info().Str("addr", cfg.ListenAddr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("Server forced to shutdown")
		}
		// hijacked websocket connections are not tracked by Shutdown
		hub.CloseAll()
		sb.Stop()
		<-sb.Done()

		if cfg.SnapshotPath != "" {
			if err := snapshot.Save(shutdownCtx, cfg.SnapshotPath, store); err != nil {
				return err
			}
			l.Info().Str("path", cfg.SnapshotPath).Msg("Record store saved")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	l.Info().Msg("Server exited")
	return nil
}

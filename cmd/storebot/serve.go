package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/anbtech/storebot/internal/api"
	"github.com/anbtech/storebot/internal/assistant"
	"github.com/anbtech/storebot/internal/catalog"
	"github.com/anbtech/storebot/internal/clock"
	"github.com/anbtech/storebot/internal/completion"
	"github.com/anbtech/storebot/internal/config"
	"github.com/anbtech/storebot/internal/intent"
	"github.com/anbtech/storebot/internal/ledger"
	"github.com/anbtech/storebot/internal/messaging"
	"github.com/anbtech/storebot/internal/scheduler"
	"github.com/anbtech/storebot/internal/session"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server and the schedulers (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "also serve the admin tools over MCP on stdin/stdout")
}

func newLogger(level string, asJSON bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openLedger(cfg config.LedgerConfig, clk clock.Clock) (ledger.Ledger, error) {
	switch cfg.Backend {
	case "sqlite":
		l, err := ledger.OpenSQLite(cfg.DSN, clk)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite ledger: %w", err)
		}
		return l, nil
	case "memory", "":
		return ledger.NewMemory(clk), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// newHTTPServer leaves BaseContext unset: request contexts must outlive the
// shutdown signal so Shutdown can drain in-flight webhooks.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "storebot version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(logger)

	clk := clock.System{}

	ldg, err := openLedger(cfg.Ledger, clk)
	if err != nil {
		return err
	}
	defer ldg.Close()
	printStep("ledger backend: %s", cfg.Ledger.Backend)

	sessions := session.NewMemoryStore()
	cat := catalog.Default()
	sender := messaging.NewTwilioClientWithBaseURL(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber, cfg.Twilio.BaseURL)

	responder := completion.NewResponder(
		completion.NewClientWithBaseURL(cfg.Completion.APIKey, cfg.Completion.BaseURL),
		completion.Options{
			Model:       cfg.Completion.Model,
			Temperature: cfg.Completion.Temperature,
			MaxTokens:   cfg.Completion.MaxTokens,
			Logger:      logger,
		},
	)

	if cfg.Admin.SecretPhrase == "" {
		printWarning("admin.secret_phrase is empty: the WhatsApp sales report is disabled")
	}

	svc := assistant.New(assistant.Deps{
		Sessions:   sessions,
		Ledger:     ldg,
		Catalog:    cat,
		Classifier: intent.NewClassifier(cfg.Admin.SecretPhrase),
		Fallback:   responder,
		Sender:     sender,
		Clock:      clk,
		Logger:     logger,
	})

	sched := scheduler.New(sessions, sender, clk, scheduler.Options{
		FollowUpInterval: cfg.Scheduler.FollowUpEvery(),
		PromoInterval:    cfg.Scheduler.PromoEvery(),
		Logger:           logger,
	})

	deps := api.Deps{
		Assistant:      svc,
		Ledger:         ldg,
		Sessions:       sessions,
		Catalog:        cat,
		AdminToken:     cfg.Admin.APIToken,
		AllowedOrigins: cfg.CORS.Origins(),
		Logger:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := cfg.Server.Addr()
	srv := newHTTPServer(addr, api.NewHandler(deps))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return sched.Run(gctx)
	})

	g.Go(func() error {
		printSuccess("storebot listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if withMCP {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(deps, version))
		go func() {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("MCP stdio server error", "error", err)
			}
		}()
		logger.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dukerupert/savesmart/internal/database"
	"github.com/dukerupert/savesmart/internal/logging"
	"github.com/dukerupert/savesmart/internal/receipt"
	"github.com/dukerupert/savesmart/internal/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Flags: append(s3Flags(),
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Listen port", EnvVars: []string{"SAVESMART_PORT"}},
			&cli.StringFlag{Name: "base-url", Usage: "Public URL; https enables secure cookies", EnvVars: []string{"SAVESMART_BASE_URL"}},
			&cli.StringFlag{Name: "vapid-public-key", EnvVars: []string{"SAVESMART_VAPID_PUBLIC_KEY"}},
			&cli.StringFlag{Name: "vapid-private-key", EnvVars: []string{"SAVESMART_VAPID_PRIVATE_KEY"}},
			&cli.DurationFlag{Name: "cleanup-interval", Value: server.DefaultCleanupInterval, Usage: "Expired session sweep interval"},
		),
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := logging.Setup(c.String("log-level"), c.String("log-format"))

	db, err := database.Open(c.String("db-path"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Config{
		BaseURL:         c.String("base-url"),
		Receipts:        s3Config(c),
		VAPIDPublicKey:  c.String("vapid-public-key"),
		VAPIDPrivateKey: c.String("vapid-private-key"),
	}, logger)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cleaner := server.NewCleaner(srv.SessionStore(), srv.RateLimiter(), c.Duration("cleanup-interval"), logger.With("component", "cleanup"))
	cleaner.Start(ctx)
	defer cleaner.Stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Int("port")),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("SaveSmart running", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func s3Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "s3-endpoint", Usage: "S3-compatible endpoint for receipts and backups", EnvVars: []string{"SAVESMART_S3_ENDPOINT"}},
		&cli.StringFlag{Name: "s3-bucket", Usage: "Bucket for receipts and backups", EnvVars: []string{"SAVESMART_S3_BUCKET"}},
		&cli.StringFlag{Name: "s3-region", Value: "auto", Usage: "Bucket region", EnvVars: []string{"SAVESMART_S3_REGION"}},
		&cli.StringFlag{Name: "s3-access-key", EnvVars: []string{"SAVESMART_S3_ACCESS_KEY"}},
		&cli.StringFlag{Name: "s3-secret-key", EnvVars: []string{"SAVESMART_S3_SECRET_KEY"}},
		&cli.StringFlag{Name: "s3-public-url", Usage: "Base URL receipts are served from", EnvVars: []string{"SAVESMART_S3_PUBLIC_URL"}},
	}
}

func s3Config(c *cli.Context) receipt.Config {
	return receipt.Config{
		Endpoint:  c.String("s3-endpoint"),
		Bucket:    c.String("s3-bucket"),
		Region:    c.String("s3-region"),
		AccessKey: c.String("s3-access-key"),
		SecretKey: c.String("s3-secret-key"),
		PublicURL: c.String("s3-public-url"),
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rowanvale/bridgewell/internal/archive"
	"github.com/rowanvale/bridgewell/internal/database"
	"github.com/rowanvale/bridgewell/internal/email"
	"github.com/rowanvale/bridgewell/internal/logging"
	"github.com/rowanvale/bridgewell/internal/server"
	billingstripe "github.com/rowanvale/bridgewell/internal/stripe"
)

func main() {
	logger := logging.Setup(os.Getenv("BW_LOG_LEVEL"))

	port := os.Getenv("BW_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("BW_DB_PATH")
	if dbPath == "" {
		dbPath = "bridgewell.db"
	}

	baseURL := os.Getenv("BW_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", port)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("RESEND_API_KEY"),
		os.Getenv("BW_FROM_EMAIL"),
		baseURL,
	)

	var adminEmails []string
	for _, e := range strings.Split(os.Getenv("BW_ADMIN_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			adminEmails = append(adminEmails, e)
		}
	}

	cfg := server.Config{
		Stripe: billingstripe.Config{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			SuccessURL:    baseURL + "/purchase-complete?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:     baseURL + "/pricing",
		},
		Archive: archive.Config{
			Endpoint:  os.Getenv("BW_ARCHIVE_S3_ENDPOINT"),
			Bucket:    os.Getenv("BW_ARCHIVE_S3_BUCKET"),
			Region:    os.Getenv("BW_ARCHIVE_S3_REGION"),
			AccessKey: os.Getenv("BW_ARCHIVE_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("BW_ARCHIVE_S3_SECRET_KEY"),
		},
		BaseURL:        baseURL,
		EmailClient:    emailClient,
		AdminJWTSecret: os.Getenv("BW_ADMIN_JWT_SECRET"),
		AdminEmails:    adminEmails,
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("bridgewell starting", "addr", ":"+port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rowanvale/bridgewell/internal/archive"
	"github.com/rowanvale/bridgewell/internal/certificate"
	"github.com/rowanvale/bridgewell/internal/email"
	"github.com/rowanvale/bridgewell/internal/handler"
	"github.com/rowanvale/bridgewell/internal/identity"
	"github.com/rowanvale/bridgewell/internal/middleware"
	"github.com/rowanvale/bridgewell/internal/store"
	billingstripe "github.com/rowanvale/bridgewell/internal/stripe"
	"github.com/rowanvale/bridgewell/internal/swap"
)

type Config struct {
	Stripe         billingstripe.Config
	Archive        archive.Config
	BaseURL        string
	EmailClient    *email.Client
	AdminJWTSecret string
	AdminEmails    []string
}

type Server struct {
	db           *sql.DB
	cfg          Config
	logger       *slog.Logger
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter

	authH     *handler.AuthHandler
	webhookH  *handler.WebhookHandler
	checkoutH *handler.CheckoutHandler
	progressH *handler.ProgressHandler
	examH     *handler.ExamHandler
	swapH     *handler.SwapHandler
	verifyH   *handler.VerifyHandler
	profileH  *handler.ProfileHandler
	attorneyH *handler.AttorneyHandler
	adminH    *handler.AdminHandler
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	identityStore := identity.NewStore(db)
	sessionStore := store.NewSessionStore(db)
	profileStore := store.NewProfileStore(db)
	purchaseStore := store.NewPurchaseStore(db)
	progressStore := store.NewProgressStore(db)
	examStore := store.NewExamStore(db)
	certificateStore := store.NewCertificateStore(db)
	attorneyStore := store.NewAttorneyStore(db)

	var stripeClient *billingstripe.Client
	if cfg.Stripe.SecretKey != "" {
		stripeClient = billingstripe.NewClient(cfg.Stripe)
	}

	uploader := archive.NewUploader(cfg.Archive)

	certSvc := certificate.NewService(
		certificateStore, profileStore, attorneyStore, identityStore,
		cfg.EmailClient, uploader, logger.With("component", "certificate"),
	)
	swapSvc := swap.NewService(db, purchaseStore, progressStore, examStore, certificateStore)

	var webhookH *handler.WebhookHandler
	var checkoutH *handler.CheckoutHandler
	if stripeClient != nil {
		webhookH = handler.NewWebhookHandler(stripeClient, identityStore, purchaseStore, profileStore, cfg.EmailClient, logger.With("component", "webhook"))
		checkoutH = handler.NewCheckoutHandler(stripeClient)
	}

	return &Server{
		db:           db,
		cfg:          cfg,
		logger:       logger,
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		authH:        handler.NewAuthHandler(identityStore, sessionStore, logger.With("component", "auth")),
		webhookH:     webhookH,
		checkoutH:    checkoutH,
		progressH:    handler.NewProgressHandler(purchaseStore, progressStore, logger.With("component", "progress")),
		examH:        handler.NewExamHandler(purchaseStore, progressStore, examStore, certSvc, logger.With("component", "exam")),
		swapH:        handler.NewSwapHandler(swapSvc, logger.With("component", "swap")),
		verifyH:      handler.NewVerifyHandler(certificateStore, profileStore, progressStore, purchaseStore),
		profileH:     handler.NewProfileHandler(profileStore, logger.With("component", "profile")),
		attorneyH:    handler.NewAttorneyHandler(attorneyStore, logger.With("component", "attorney")),
		adminH:       handler.NewAdminHandler(identityStore, profileStore, purchaseStore, progressStore, examStore, certificateStore, logger.With("component", "admin")),
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthCheck)

	// Stripe webhook (public, signature-verified)
	if s.webhookH != nil {
		mux.HandleFunc("POST /api/webhook", s.webhookH.HandleStripeWebhook)
	}
	if s.checkoutH != nil {
		mux.HandleFunc("POST /api/create-checkout", s.rateLimited(s.checkoutH.CreateCheckout))
	}

	// Public verification (rate-limited, intentionally unauthenticated)
	mux.HandleFunc("GET /api/verify/{code}", s.rateLimited(s.verifyH.Verify))

	mux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))

	// Session-authenticated routes
	authMw := middleware.RequireSession(s.sessionStore)
	mux.Handle("POST /api/logout", authMw(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("GET /api/profile", authMw(http.HandlerFunc(s.profileH.Get)))
	mux.Handle("PUT /api/profile", authMw(http.HandlerFunc(s.profileH.Update)))
	mux.Handle("GET /api/attorneys/search", authMw(http.HandlerFunc(s.attorneyH.Search)))
	mux.Handle("GET /api/progress/{courseType}", authMw(http.HandlerFunc(s.progressH.Get)))
	mux.Handle("POST /api/progress/{courseType}/complete-lesson", authMw(http.HandlerFunc(s.progressH.CompleteLesson)))
	mux.Handle("POST /api/exam/submit", authMw(http.HandlerFunc(s.examH.Submit)))
	mux.Handle("POST /api/swap-class", authMw(http.HandlerFunc(s.swapH.SwapClass)))

	// Admin routes (bearer token, allowlisted emails)
	adminMw := middleware.RequireAdmin(s.cfg.AdminJWTSecret, s.cfg.AdminEmails)
	mux.Handle("GET /api/admin/support/dashboard-stats", adminMw(http.HandlerFunc(s.adminH.DashboardStats)))
	mux.Handle("POST /api/admin/support/customer-lookup", adminMw(http.HandlerFunc(s.adminH.CustomerLookup)))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 20, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

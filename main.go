package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/username/financeflow/backend/src/config"
	"github.com/username/financeflow/backend/src/database"
	"github.com/username/financeflow/backend/src/handlers"
	"github.com/username/financeflow/backend/src/logger"
	"github.com/username/financeflow/backend/src/security"
	"github.com/username/financeflow/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			config.Cfg.FrontendBaseURL: true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("FinanceFlow backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing services and handlers...")
	oversellPolicy := services.ParseOversellPolicy(config.Cfg.OversellPolicy)

	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	priceService := services.NewPriceService(config.Cfg.PriceCacheTTL)
	portfolioService := services.NewPortfolioService(database.DB, oversellPolicy)
	transactionService := services.NewTransactionService(database.DB, oversellPolicy)

	userHandler := handlers.NewUserHandler(authService, emailService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService, priceService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)

	handlers.InitializeGoogleOAuthConfig()

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public auth routes.
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)
	apiRouter.HandleFunc("GET /api/auth/verify-email", userHandler.VerifyEmailHandler)
	apiRouter.HandleFunc("GET /api/auth/google/login", userHandler.HandleGoogleLogin)
	apiRouter.HandleFunc("GET /api/auth/google/callback", userHandler.HandleGoogleCallback)

	csrfProtection := handlers.CSRFMiddleware()

	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))
	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", csrfProtection(authActionRouter)))

	protect := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("GET /api/portfolios", protect(portfolioHandler.HandleListPortfolios))
	apiRouter.Handle("POST /api/portfolios", protect(portfolioHandler.HandleCreatePortfolio))
	apiRouter.Handle("GET /api/portfolios/{id}", protect(portfolioHandler.HandleGetPortfolio))
	apiRouter.Handle("PUT /api/portfolios/{id}", protect(portfolioHandler.HandleUpdatePortfolio))
	apiRouter.Handle("DELETE /api/portfolios/{id}", protect(portfolioHandler.HandleDeletePortfolio))

	apiRouter.Handle("POST /api/portfolios/{id}/assets", protect(portfolioHandler.HandleAddAsset))
	apiRouter.Handle("PUT /api/portfolios/{id}/assets/{assetId}", protect(portfolioHandler.HandleUpdateAsset))
	apiRouter.Handle("DELETE /api/portfolios/{id}/assets/{assetId}", protect(portfolioHandler.HandleRemoveAsset))

	apiRouter.Handle("GET /api/portfolios/{id}/allocation", protect(portfolioHandler.HandleGetAllocation))
	apiRouter.Handle("GET /api/portfolios/{id}/performance", protect(portfolioHandler.HandleGetPerformance))
	apiRouter.Handle("POST /api/portfolios/{id}/recalculate-totals", protect(portfolioHandler.HandleRecalculateTotals))
	apiRouter.Handle("POST /api/portfolios/{id}/recalculate-gains", protect(portfolioHandler.HandleRecalculateGains))
	apiRouter.Handle("POST /api/portfolios/{id}/fix-asset-types", protect(portfolioHandler.HandleFixAssetTypes))
	apiRouter.Handle("POST /api/portfolios/{id}/refresh-prices", protect(portfolioHandler.HandleRefreshPrices))
	apiRouter.Handle("GET /api/activities/recent", protect(portfolioHandler.HandleRecentActivities))

	apiRouter.Handle("GET /api/transactions", protect(transactionHandler.HandleListTransactions))
	apiRouter.Handle("POST /api/transactions", protect(transactionHandler.HandleCreateTransaction))
	apiRouter.Handle("POST /api/transactions/bulk", protect(transactionHandler.HandleCreateBulk))
	apiRouter.Handle("GET /api/transactions/summary", protect(transactionHandler.HandleGetSummary))
	apiRouter.Handle("GET /api/transactions/{id}", protect(transactionHandler.HandleGetTransaction))
	apiRouter.Handle("PUT /api/transactions/{id}", protect(transactionHandler.HandleUpdateTransaction))
	apiRouter.Handle("DELETE /api/transactions/{id}", protect(transactionHandler.HandleDeleteTransaction))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "FinanceFlow Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}

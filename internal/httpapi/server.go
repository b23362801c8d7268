// Package httpapi exposes the loan marketplace and league services as an
// authenticated JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/CedarStreetLab/loanmarket/pkg/league"
	"github.com/CedarStreetLab/loanmarket/pkg/market"
)

// NewRouter assembles the gin engine with auth, CORS, metrics, and every
// marketplace and league route.
func NewRouter(cfg Config, marketService *market.Service, leagueService *league.Service, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	marketRoutes := &marketHandler{logger: logger, service: marketService}
	leagueRoutes := &leagueHandler{service: leagueService}

	api := router.Group("/api")
	api.Use(authMiddleware([]byte(cfg.AuthSigningKey), cfg.AuthIssuer))

	api.GET("/address", marketRoutes.handleAddress)

	api.POST("/borrowers", marketRoutes.handleAddBorrower)
	api.GET("/borrowers", marketRoutes.handleListBorrowers)
	api.GET("/borrowers/me", marketRoutes.handleBorrowerProfile)
	api.PUT("/borrowers/:id", marketRoutes.handleUpdateBorrower)

	api.POST("/lenders", marketRoutes.handleAddLender)
	api.GET("/lenders", marketRoutes.handleListLenders)
	api.GET("/lenders/me", marketRoutes.handleLenderProfile)
	api.PUT("/lenders/:id", marketRoutes.handleUpdateLender)
	api.GET("/lenders/:id/loans", marketRoutes.handleLenderLoans)
	api.POST("/lenders/:id/savings/reserve", marketRoutes.handleReserveSavings)
	api.POST("/lenders/:id/savings/complete", marketRoutes.handleCompleteSavings)

	api.POST("/collaterals", marketRoutes.handleAddCollateral)
	api.GET("/collaterals", marketRoutes.handleListCollaterals)

	api.POST("/loans", marketRoutes.handleAddLoan)
	api.GET("/loans", marketRoutes.handleListLoans)
	api.GET("/loans/active", marketRoutes.handleListActiveLoans)
	api.GET("/loans/:id", marketRoutes.handleGetLoan)
	api.PUT("/loans/:id", marketRoutes.handleUpdateLoan)
	api.POST("/loans/:id/approve", marketRoutes.handleApproveLoan)
	api.POST("/loans/:id/reject", marketRoutes.handleRejectLoan)
	api.GET("/loans/:id/requests", marketRoutes.handleLoanRequests)
	api.GET("/loans/:id/repayments", marketRoutes.handleLoanRepayments)
	api.POST("/loans/:id/payout/reserve", marketRoutes.handleReservePayout)
	api.POST("/loans/:id/payout/complete", marketRoutes.handleCompletePayout)
	api.POST("/loans/:id/repayment/reserve", marketRoutes.handleReserveRepayment)
	api.POST("/loans/:id/repayment/complete", marketRoutes.handleCompleteRepayment)

	api.POST("/requests", marketRoutes.handleAddRequest)
	api.GET("/requests", marketRoutes.handleListRequests)
	api.GET("/requests/:id", marketRoutes.handleGetRequest)
	api.POST("/requests/:id/select", marketRoutes.handleSelectRequest)

	leagueAPI := api.Group("/league")
	leagueAPI.POST("/users", leagueRoutes.handleRegisterUser)
	leagueAPI.GET("/users", leagueRoutes.handleListUsers)
	leagueAPI.POST("/leagues", leagueRoutes.handleCreateLeague)
	leagueAPI.GET("/leagues", leagueRoutes.handleListLeagues)
	leagueAPI.POST("/tournaments", leagueRoutes.handleCreateTournament)
	leagueAPI.GET("/tournaments", leagueRoutes.handleListTournaments)
	leagueAPI.POST("/teams", leagueRoutes.handleCreateTeam)
	leagueAPI.GET("/teams", leagueRoutes.handleListTeams)
	leagueAPI.POST("/matches", leagueRoutes.handleScheduleMatch)
	leagueAPI.GET("/matches", leagueRoutes.handleListMatches)
	leagueAPI.POST("/matches/:id/result", leagueRoutes.handleSubmitMatchResult)
	leagueAPI.GET("/leaderboard/:sport", leagueRoutes.handleLeaderboard)

	return router
}

// Run serves the router until ctx is canceled, then shuts down
// gracefully.
func Run(ctx context.Context, cfg Config, router *gin.Engine, logger *zap.Logger) error {
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

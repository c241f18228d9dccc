package routes

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/templui/goalkeep/internal/app"
	"github.com/templui/goalkeep/internal/handler"
	"github.com/templui/goalkeep/internal/middleware"
)

func SetupRoutes(ctx context.Context, app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// Mutating endpoints are limited per caller
	limiter := middleware.NewRateLimiter(ctx, app.Cfg.RateLimitRequests, app.Cfg.RateLimitWindow)
	write := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireAuth(limiter.Limit(h))
	}

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// ============================================================================
	// READS (privacy-gated, identity optional)
	// ============================================================================

	mux.HandleFunc("GET /api/goals/{id}", goal.Goal)
	mux.HandleFunc("GET /api/goals/{id}/milestones", goal.Milestones)
	mux.HandleFunc("GET /api/goals/{id}/validators", goal.Validators)
	mux.HandleFunc("GET /api/goals/{id}/verification", goal.Verification)
	mux.HandleFunc("GET /api/goals/{id}/access", goal.Access)
	mux.HandleFunc("GET /api/users/{identity}/goals", goal.UserGoals)

	// ============================================================================
	// LIFECYCLE (authenticated)
	// ============================================================================

	mux.HandleFunc("POST /api/goals", write(goal.Create))
	mux.HandleFunc("POST /api/goals/{id}/validators", write(goal.AddValidator))
	mux.HandleFunc("PATCH /api/goals/{id}/milestones/{index}", write(goal.UpdateMilestone))
	mux.HandleFunc("POST /api/goals/{id}/complete", write(goal.Complete))
	mux.HandleFunc("POST /api/goals/{id}/verify", write(goal.Verify))
	mux.HandleFunc("POST /api/goals/{id}/reward", write(goal.MintReward))
	mux.HandleFunc("PATCH /api/goals/{id}/privacy", write(goal.UpdatePrivacy))

	// Expiry needs no caller
	mux.HandleFunc("POST /api/goals/{id}/expire", limiter.Limit(goal.Expire))

	// Authentication runs before logging so request logs carry the caller
	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging,
	)
}

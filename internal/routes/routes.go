package routes

import (
	"net/http"
	"time"

	"github.com/shiftascent/shiftascent/internal/app"
	"github.com/shiftascent/shiftascent/internal/handler"
	"github.com/shiftascent/shiftascent/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	account := handler.NewAccountHandler(app.UserService, app.AuthService)
	dashboard := handler.NewDashboardHandler(app.StatsService, app.GoalService)
	goal := handler.NewGoalHandler(app.GoalService)
	milestone := handler.NewMilestoneHandler(app.MilestoneService)
	reflection := handler.NewReflectionHandler(app.MilestoneService, app.FileService)
	share := handler.NewShareHandler(app.ShareService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Share pages - the capability URL is the only credential
	shareLimiter := middleware.RateLimit(60, time.Minute)

	mux.HandleFunc("GET /s/{shareID}", shareLimiter(share.Show))
	mux.HandleFunc("POST /s/{shareID}/witness", shareLimiter(share.Witness))

	// Auth - Authentication flow (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /auth/register", rateLimiter(middleware.RequireGuest(auth.Register)))
	mux.HandleFunc("POST /auth/login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	mux.HandleFunc("POST /auth/magic-link", rateLimiter(middleware.RequireGuest(auth.SendMagicLink)))
	mux.HandleFunc("GET /auth/magic-link/{token}", auth.VerifyMagicLink)
	mux.HandleFunc("POST /auth/forgot-password", rateLimiter(middleware.RequireGuest(auth.ForgotPassword)))
	mux.HandleFunc("POST /auth/reset-password", rateLimiter(auth.ResetPassword))

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	mux.HandleFunc("GET /app/me", middleware.RequireAuth(auth.Me))
	mux.HandleFunc("GET /app/dashboard", middleware.RequireAuth(dashboard.Show))

	// Account
	mux.HandleFunc("PATCH /app/account/name", middleware.RequireAuth(account.UpdateName))
	mux.HandleFunc("POST /app/account/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("DELETE /app/account", middleware.RequireAuth(account.DeleteAccount))

	// Goals
	mux.HandleFunc("GET /app/goals", middleware.RequireAuth(goal.List))
	mux.HandleFunc("POST /app/goals", middleware.RequireAuth(goal.Create))
	mux.HandleFunc("GET /app/goals/{id}", middleware.RequireAuth(goal.Show))
	mux.HandleFunc("PUT /app/goals/{id}", middleware.RequireAuth(goal.Update))
	mux.HandleFunc("POST /app/goals/{id}/abandon", middleware.RequireAuth(goal.Abandon))

	// Milestones
	mux.HandleFunc("POST /app/goals/{id}/milestones", middleware.RequireAuth(milestone.Create))
	mux.HandleFunc("PUT /app/goals/{id}/milestones/order", middleware.RequireAuth(milestone.Reorder))
	mux.HandleFunc("PATCH /app/goals/{id}/milestones/{milestoneID}", middleware.RequireAuth(milestone.Rename))
	mux.HandleFunc("DELETE /app/goals/{id}/milestones/{milestoneID}", middleware.RequireAuth(milestone.Delete))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/lock", middleware.RequireAuth(milestone.Lock))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/kept", middleware.RequireAuth(milestone.MarkKept))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/broken", middleware.RequireAuth(milestone.MarkBroken))

	// Reflection wizard
	mux.HandleFunc("GET /app/goals/{id}/milestones/{milestoneID}/reflection/steps", middleware.RequireAuth(reflection.Steps))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/reflection/steps/validate", middleware.RequireAuth(reflection.ValidateStep))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/reflection/proof", middleware.RequireAuth(reflection.UploadProof))
	mux.HandleFunc("POST /app/goals/{id}/milestones/{milestoneID}/reflection", middleware.RequireAuth(reflection.Submit))
	mux.HandleFunc("GET /app/goals/{id}/milestones/{milestoneID}/reflection", middleware.RequireAuth(reflection.Show))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService),
	)
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lmittmann/tint"

	"github.com/gelsin-dev/gelsin/internal/admin"
	"github.com/gelsin-dev/gelsin/internal/alerts"
	"github.com/gelsin-dev/gelsin/internal/auth"
	"github.com/gelsin-dev/gelsin/internal/db"
	"github.com/gelsin-dev/gelsin/internal/jobs"
	"github.com/gelsin-dev/gelsin/internal/lifecycle"
	"github.com/gelsin-dev/gelsin/internal/messaging"
	appmw "github.com/gelsin-dev/gelsin/internal/middleware"
	"github.com/gelsin-dev/gelsin/internal/user"
	"github.com/gelsin-dev/gelsin/internal/wallet"
)

type CustomValidator struct {
	validate *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.Kitchen,
	})))

	// Init subsystems
	db.Init()
	alerts.Init()
	alerts.ConfigureSMSFromEnv()
	defer alerts.Close()

	engine := lifecycle.NewEngine(lifecycle.NewPGStore(db.Conn))
	jobs.Init(engine)
	admin.Init(engine)
	alerts.SetReconciler(engine.ReconcileSettlements)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validate: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "gelsin"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Uploaded task photos
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	e.Static("/uploads", uploadDir)

	// Public auth routes with per-IP rate limiting to protect OTP delivery from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/otp/request", auth.RequestOTP)
	authGroup.POST("/otp/verify", auth.VerifyOTP)
	authGroup.POST("/bootstrap_admin", auth.BootstrapAdmin)

	// Public discovery
	e.GET("/user/:id/profile", user.GetPublicProfile)
	e.GET("/fixers/:id/reviews", jobs.GetFixerReviews)

	// Protected routes
	api := e.Group("")
	api.Use(appmw.JWTMiddleware)

	api.GET("/me", auth.Me)
	api.POST("/auth/onboard", auth.Onboard)
	api.PATCH("/user/profile", user.UpdateProfile)

	// Tasks
	api.POST("/tasks", jobs.CreateTask, appmw.RequireRoles("customer"))
	api.GET("/tasks/nearby", jobs.GetNearbyTasks, appmw.RequireRoles("fixer"))
	api.GET("/tasks/mine", jobs.GetMyTasks, appmw.RequireRoles("customer"))
	api.GET("/tasks/assigned", jobs.GetAssignedTasks, appmw.RequireRoles("fixer"))
	api.GET("/tasks/:id", jobs.GetTask)
	api.POST("/tasks/:id/photos", jobs.UploadTaskPhoto, appmw.RequireRoles("customer"))

	// Offers
	api.POST("/tasks/:id/offers", jobs.SubmitOffer, appmw.RequireRoles("fixer"))
	api.GET("/tasks/:id/offers", jobs.ListOffers, appmw.RequireRoles("customer"))
	api.POST("/offers/:id/accept", jobs.AcceptOffer, appmw.RequireRoles("customer"))

	// On-site QR flow
	api.POST("/tasks/:id/checkin", jobs.CheckIn, appmw.RequireRoles("fixer"))
	api.POST("/tasks/:id/checkout", jobs.CheckOut, appmw.RequireRoles("fixer"))

	// Reviews
	api.POST("/tasks/:id/review", jobs.CreateReview, appmw.RequireRoles("customer"))

	// Messaging
	api.POST("/tasks/:id/messages", messaging.SendMessage)
	api.GET("/tasks/:id/messages", messaging.ListMessages)
	api.POST("/tasks/:id/messages/read", messaging.MarkThreadRead)
	api.GET("/tasks/:id/messages/unread", messaging.UnreadCount)
	api.GET("/tasks/:id/ws", messaging.TaskWS)

	// Wallet
	api.GET("/wallet", wallet.Balance)
	api.GET("/wallet/transactions", wallet.Transactions)
	api.POST("/wallet/withdraw", wallet.Withdraw, appmw.RequireRoles("fixer"))

	// Notifications
	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	// Admin routes
	adminGroup := e.Group("/admin")
	adminGroup.Use(appmw.JWTMiddleware)
	adminGroup.Use(appmw.AdminGuard)
	adminGroup.GET("/stats", admin.Stats)
	adminGroup.GET("/tasks", admin.ListTasks)
	adminGroup.GET("/users", admin.ListUsers)
	adminGroup.GET("/wallets", admin.ListWallets)
	adminGroup.GET("/settlements", admin.ListSettlements)
	adminGroup.POST("/tasks/:id/settle", admin.SettleTask)
	adminGroup.POST("/settlements/reconcile", admin.Reconcile)
	adminGroup.POST("/fixers/:id/verify", admin.VerifyFixer)
	adminGroup.POST("/fixers/:id/unverify", admin.UnverifyFixer)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("api server listening", "port", port)
	if err := e.Start(":" + port); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

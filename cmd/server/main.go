package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ayoub195/safisaana/internal/config"
	"github.com/ayoub195/safisaana/internal/events"
	"github.com/ayoub195/safisaana/internal/gateway"
	"github.com/ayoub195/safisaana/internal/handler"
	"github.com/ayoub195/safisaana/internal/middleware"
	"github.com/ayoub195/safisaana/internal/models"
	"github.com/ayoub195/safisaana/internal/repository"
	"github.com/ayoub195/safisaana/internal/service"
	"github.com/ayoub195/safisaana/pkg/database"
	"github.com/ayoub195/safisaana/pkg/logger"
	"github.com/ayoub195/safisaana/pkg/redis"
)

func main() {
	log := logger.NewLogger("safisaana")
	defer log.Sync()

	cfg := config.Load()

	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(models.PaymentSchema, models.NotificationSchema, models.CatalogSchema); err != nil {
		log.Fatal("failed to apply schema", zap.Error(err))
	}

	redisClient := redis.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Repositories
	paymentRepo := repository.NewPaymentRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	catalogRepo := repository.NewCatalogRepository(db.DB)

	// Optional collaborators
	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
	}

	var publisher service.EventPublisher
	if kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log); kp != nil {
		publisher = kp
		defer kp.Close()
	}

	var card service.CardGateway
	if cfg.StripeKey != "" {
		card = gateway.NewStripeGateway(cfg.StripeKey)
	}

	// Services
	notifier := service.NewNotifier(notificationRepo, mailer, log)
	engine := service.NewTransitionEngine(paymentRepo, notifier, publisher, log)
	widget := gateway.NewIntaSendCheckout(cfg.IntaSendPublicKey, cfg.AppBaseURL)
	checkout := service.NewCheckoutService(paymentRepo, redisClient, widget, card, log)
	reports := service.NewReportService(paymentRepo, log)
	auth := service.NewAuthService(gateway.NewHTTPIdentityVerifier(cfg.IdentityVerifyURL), cfg.SessionSecret, cfg.SessionTTL)

	// Handlers
	paymentHandler := handler.NewPaymentHandler(checkout, engine, log)
	webhookHandler := handler.NewWebhookHandler(engine, cfg.IntaSendWebhookSecret, log)
	notificationHandler := handler.NewNotificationHandler(notificationRepo, log)
	catalogHandler := handler.NewCatalogHandler(catalogRepo, log)
	reportHandler := handler.NewReportHandler(reports, log)
	authHandler := handler.NewAuthHandler(auth, log)

	router := setupRouter(log, auth, paymentHandler, webhookHandler, notificationHandler, catalogHandler, reportHandler, authHandler)

	// Stale PENDING reconciliation sweep
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	sweeper := service.NewSweeper(paymentRepo, engine, cfg.SweepInterval, cfg.PendingTTL, log)
	go sweeper.Run(sweepCtx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

func setupRouter(
	log *zap.Logger,
	auth *service.AuthService,
	payments *handler.PaymentHandler,
	webhooks *handler.WebhookHandler,
	notifications *handler.NotificationHandler,
	catalog *handler.CatalogHandler,
	reports *handler.ReportHandler,
	authHandler *handler.AuthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Checkout and payment lookups
		v1.POST("/payments", payments.CreateCheckout)
		v1.GET("/payments/:id", payments.GetPayment)
		v1.POST("/payments/:id/events/client", payments.ClientEvent)
		v1.GET("/payments/:id/receipt", payments.Receipt)

		// Gateway webhook
		v1.POST("/webhooks/intasend", webhooks.HandleIntaSend)

		// Session auth
		v1.POST("/auth/session", authHandler.CreateSession)
		v1.DELETE("/auth/session", authHandler.DeleteSession)

		// Public catalog reads
		v1.GET("/catalog/products", catalog.ListProducts)
		v1.GET("/catalog/products/:id", catalog.GetProduct)
		v1.GET("/catalog/courses", catalog.ListCourses)
		v1.GET("/catalog/courses/:id", catalog.GetCourse)
		v1.GET("/catalog/ebooks", catalog.ListEbooks)
		v1.GET("/catalog/ebooks/:id", catalog.GetEbook)

		// Session-guarded admin surface
		admin := v1.Group("", middleware.RequireSession(auth))
		{
			admin.GET("/payments", payments.ListPayments)
			admin.GET("/reports/payments", reports.PaymentsReport)

			admin.GET("/notifications", notifications.List)
			admin.POST("/notifications/:id/read", notifications.MarkRead)

			admin.POST("/catalog/products", catalog.CreateProduct)
			admin.PUT("/catalog/products/:id", catalog.UpdateProduct)
			admin.DELETE("/catalog/products/:id", catalog.DeleteProduct)

			admin.POST("/catalog/courses", catalog.CreateCourse)
			admin.PUT("/catalog/courses/:id", catalog.UpdateCourse)
			admin.DELETE("/catalog/courses/:id", catalog.DeleteCourse)

			admin.POST("/catalog/ebooks", catalog.CreateEbook)
			admin.PUT("/catalog/ebooks/:id", catalog.UpdateEbook)
			admin.DELETE("/catalog/ebooks/:id", catalog.DeleteEbook)
		}
	}

	return router
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"journal-api/internal/config"
	apphttp "journal-api/internal/http"
	"journal-api/internal/mail"
	"journal-api/internal/repository/sqlite"
	"journal-api/internal/service"
	"journal-api/internal/storage"
	"journal-api/internal/token"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		logger.Fatalf("auth signing secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	entryRepo := sqlite.NewEntryRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := entryRepo.Init(ctx); err != nil {
		logger.Fatalf("init entry repository: %v", err)
	}

	codec, err := token.NewCodec(
		cfg.Auth.Secret,
		cfg.Auth.Algorithm,
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLDays)*24*time.Hour,
		time.Duration(cfg.Auth.ResetTTLHours)*time.Hour,
	)
	if err != nil {
		logger.Fatalf("setup token codec: %v", err)
	}

	mailer := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:        cfg.SMTP.Host,
		Port:        cfg.SMTP.Port,
		Username:    cfg.SMTP.Username,
		Password:    cfg.SMTP.Password,
		From:        cfg.SMTP.From,
		TLS:         cfg.SMTP.TLS,
		FrontendURL: cfg.Frontend.URL,
	})

	authService := service.NewAuthService(userRepo, codec, mailer)
	entryService := service.NewEntryService(entryRepo)

	var exportService service.ExportService
	if cfg.Storage.Bucket == "" {
		logger.Warn("no storage bucket configured, journal exports disabled")
	} else {
		storageSvc, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			logger.Fatalf("setup storage: %v", err)
		}
		exportService = service.NewExportService(entryRepo, storageSvc, cfg.Storage.Bucket, cfg.Storage.KeyPrefix)
	}

	var generalLimiter, authLimiter *apphttp.RateLimiter
	if cfg.RateLimit.Enabled {
		generalLimiter = apphttp.NewRateLimiter(apphttp.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.PerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
		defer generalLimiter.Close()
		authLimiter = apphttp.NewRateLimiter(apphttp.RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimit.AuthPerMinute,
			Burst:             cfg.RateLimit.Burst,
		})
		defer authLimiter.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, entryService, exportService, generalLimiter, authLimiter)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}

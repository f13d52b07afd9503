package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"expense-tracker/internal/config"
	"expense-tracker/internal/events"
	"expense-tracker/internal/graphql"
	apphttp "expense-tracker/internal/http"
	"expense-tracker/internal/repository"
	"expense-tracker/internal/repository/mongodb"
	"expense-tracker/internal/repository/sqlite"
	"expense-tracker/internal/service"
	"expense-tracker/internal/storage"
)

type stores struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
	sessions     repository.SessionRepository
	close        func()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.close()

	publisher, closePublisher := buildPublisher(cfg, logger)
	defer closePublisher()

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	userService := service.NewUserService(st.users, service.UserOptions{
		AvatarBaseURL: cfg.Avatar.BaseURL,
		BcryptCost:    cfg.Auth.BcryptCost,
	})
	sessionService := service.NewSessionService(st.sessions, userService, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	transactionService := service.NewTransactionService(st.transactions, publisher, logger)
	exportService := service.NewExportService(transactionService, storageSvc, service.ExportConfig{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		URLTTL:    cfg.Storage.ExportURLTTL,
	})

	schema, err := graphql.NewSchema(graphql.NewResolver(userService, transactionService, exportService, logger))
	if err != nil {
		logger.Fatalf("build schema: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(schema, sessionService, apphttp.Options{
		CookieName:    cfg.Auth.CookieName,
		CookieSecure:  cfg.Auth.CookieSecure,
		AllowedOrigin: cfg.Server.AllowedOrigin,
	}, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		purgeSessions(gctx, sessionService, cfg.Auth.PurgeEvery, logger)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("http shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Errorf("server stopped: %v", err)
	}
	logger.Info("bye")
}

func openStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Database.MongoName)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		logger.Infof("using mongo database %s", cfg.Database.MongoName)
		return &stores{
			users:        mongodb.NewUserRepository(db),
			transactions: mongodb.NewTransactionRepository(db),
			sessions:     mongodb.NewSessionRepository(db),
			close: func() {
				disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Disconnect(disconnectCtx); err != nil {
					logger.Warnf("disconnect mongo: %v", err)
				}
			},
		}, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return &stores{
			users:        sqlite.NewUserRepository(db),
			transactions: sqlite.NewTransactionRepository(db),
			sessions:     sqlite.NewSessionRepository(db),
			close:        func() { db.Close() },
		}, nil
	}
}

// buildPublisher falls back to dropping events when no broker is configured
// or the broker cannot be reached.
func buildPublisher(cfg config.Config, logger *logrus.Logger) (events.Publisher, func()) {
	if cfg.Events.AMQPURL == "" {
		return events.NopPublisher{}, func() {}
	}
	client, err := events.NewAMQPClient(cfg.Events.AMQPURL, cfg.Events.Exchange, cfg.Events.Queue, logger)
	if err != nil {
		logger.Warnf("amqp unavailable, transaction events disabled: %v", err)
		return events.NopPublisher{}, func() {}
	}
	logger.Infof("publishing transaction events to exchange %s", cfg.Events.Exchange)
	return client, func() {
		if err := client.Close(); err != nil {
			logger.Warnf("close amqp: %v", err)
		}
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not set, transaction export disabled")
		return nil, nil
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
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

func purgeSessions(ctx context.Context, sessions service.SessionService, every time.Duration, logger *logrus.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Warnf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("purged %d expired sessions", n)
			}
		}
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"syncsns/domain/repository"
	"syncsns/infrastructure/cache"
	"syncsns/infrastructure/clients/instagram"
	"syncsns/infrastructure/clients/twitter"
	"syncsns/infrastructure/configuration"
	"syncsns/infrastructure/logger"
	"syncsns/infrastructure/persistence"
	"syncsns/infrastructure/pubsub"
	"syncsns/infrastructure/realtime"
	"syncsns/infrastructure/servicebus"
	"syncsns/infrastructure/storage"
	httpHandler "syncsns/interfaces/http"
	"syncsns/server"
	"syncsns/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")

	app := configuration.C.App

	mssqlDb, psqlDb, err := InitiateDatabase()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
	}

	mongoDb, err := persistence.NewMongoDb(
		configuration.C.Database.Mongo.Host,
		configuration.C.Database.Mongo.Port,
		configuration.C.Database.Mongo.User,
		configuration.C.Database.Mongo.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without publish audit")
		mongoDb = nil
	} else if err := mongoDb.Ping(ctx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without publish audit")
		mongoDb = nil
	} else {
		logger.GetLogger().Info("MongoDB connected successfully")
	}

	pubSubClient, err := pubsub.NewPubSub(ctx, configuration.C.Pubsub.ProjectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without outcome events")
		pubSubClient = nil
	}

	azServiceBusClient, err := servicebus.NewServiceBus(ctx, configuration.C.ServiceBus.Namespace)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without outcome forwarding")
		azServiceBusClient = nil
	}

	redisClient, _ := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
		configuration.C.RedisClient.Username,
		configuration.C.RedisClient.Password,
	)

	// Repository wiring: use MSSQL in production, otherwise PostgreSQL.
	var userRepository repository.IUser
	var connectionRepository repository.IConnection
	if psqlDb == nil {
		userRepository = persistence.NewUserRepositoryMSSQL(mssqlDb)
		connectionRepository = persistence.NewConnectionRepositoryMSSQL(mssqlDb)
		if err := persistence.EnsureSocialSchemaMSSQL(mssqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social schema (mssql)")
		}
	} else {
		userRepository = persistence.NewUserRepository(psqlDb)
		connectionRepository = persistence.NewConnectionRepository(psqlDb)
		if err := persistence.EnsureSocialSchema(psqlDb); err != nil {
			logger.GetLogger().WithField("error", err).Error("failed ensuring social schema")
		}
	}

	userUsecase := usecase.NewUserUsecase(userRepository)
	userHandler := httpHandler.NewUserHandler(userUsecase)

	connectionUsecase := usecase.NewConnectionUsecase(connectionRepository)
	connectionHandler := httpHandler.NewConnectionHandler(connectionUsecase)

	igConf := configuration.C.OAuth.Instagram
	igClient := instagram.NewClient(instagram.Config{
		ClientID:     igConf.ClientID,
		ClientSecret: igConf.ClientSecret,
		RedirectURI:  igConf.RedirectURI,
	})
	instagramOAuthHandler := httpHandler.NewInstagramOAuthHandler(igClient, connectionUsecase)

	identityCache := cache.NewIdentityCache(redisClient)
	publishers := map[string]repository.IPublisher{
		"instagram": instagram.NewPublisher(igClient, identityCache),
		"twitter":   twitter.NewPublisher(),
	}

	// Post composition and publishing run on PostgreSQL only.
	var postHandler httpHandler.IPostHandler
	publishHub := realtime.NewPublishHub()
	if psqlDb != nil {
		postRepository := persistence.NewPostRepository(psqlDb)
		auditRepository := persistence.NewAuditRepository(mongoDb, configuration.C.Database.Mongo.Name)
		postEvents := pubsub.NewPostEvents(pubSubClient, configuration.C.Pubsub.Topic)
		busEvents := servicebus.NewPostEvents(azServiceBusClient, configuration.C.ServiceBus.Queue)

		postUsecase := usecase.NewPostUsecase(postRepository, connectionRepository,
			configuration.C.Publish.Platforms, configuration.C.Publish.MaxRetries)
		publishUsecase := usecase.NewPublishUsecase(postRepository, connectionRepository,
			publishers, auditRepository, publishHub, postEvents, busEvents)
		postHandler = httpHandler.NewPostHandler(postUsecase, publishUsecase)
	} else {
		logger.GetLogger().Info("PostgreSQL not available in this environment; post publishing disabled")
		publishHub = nil
	}

	var storageHandler httpHandler.IStorageHandler
	store, err := storage.NewGCSStore(ctx, configuration.C.Storage.Bucket, configuration.C.Storage.Prefix)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Object storage not available - uploads disabled")
	} else {
		storageHandler = httpHandler.NewStorageHandler(store)
	}

	router := server.InitiateRouter(
		userHandler,
		postHandler,
		connectionHandler,
		instagramOAuthHandler,
		storageHandler,
		publishHub,
		userRepository,
	)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled}).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

func InitiateDatabase() (*sql.DB, *sql.DB, error) {
	// Contract: return (mssqlDB, psqlDB). In production, mssqlDB is the
	// primary and psqlDB may be nil; publishing then stays disabled.
	env := os.Getenv("ENV")
	if v := os.Getenv("DB_VENDOR"); v == "mssql" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (DB_VENDOR=mssql)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}
	if env == "production" || env == "prod" {
		mssql, err := persistence.NewMSSQLDB()
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Cannot connect to MSSQL (production)")
			return nil, nil, err
		}
		return mssql, nil, nil
	}

	postgres, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot connect to the local database")
		return nil, nil, err
	}
	return nil, postgres, nil
}

package app

import (
	"context"
	"database/sql"
	"errors"

	"github.com/artbay/artbay-api/configs"
	"github.com/artbay/artbay-api/internal/adapter/cache"
	httpadapter "github.com/artbay/artbay-api/internal/adapter/http"
	"github.com/artbay/artbay-api/internal/adapter/http/middleware"
	"github.com/artbay/artbay-api/internal/adapter/kafka"
	"github.com/artbay/artbay-api/internal/adapter/payment"
	"github.com/artbay/artbay-api/internal/adapter/repo"
	"github.com/artbay/artbay-api/internal/logging"
	"github.com/artbay/artbay-api/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("bootstrap")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, nil, err
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init kafka producer for the outbox drain
	producer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers)
	if err != nil {
		return nil, nil, err
	}

	// payment provider boundary
	gateway := payment.NewStripeGateway(payment.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Currency:      cfg.Stripe.Currency,
	})

	// persistence
	stores := repo.NewMySQLStores(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	artworkRepo := repo.NewMySQLArtworkRepo(db)
	dedupe := cache.NewRedisEventStore(rdb, cfg.Idempotency.TTL)

	// use cases
	createUC := usecase.NewCreateOrder(stores, gateway, cfg.Stripe.SessionTimeout)
	cancelUC := usecase.NewCancelOrder(stores)
	reconcileUC := usecase.NewReconcilePayment(stores, dedupe)
	queries := usecase.NewOrderQueries(orderRepo)

	// handlers + router + middleware
	oh := httpadapter.NewOrderHandler(createUC, cancelUC, queries)
	wh := httpadapter.NewWebhookHandler(gateway, reconcileUC)
	ah := httpadapter.NewArtworkHandler(artworkRepo)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(oh, wh, ah, authz)

	// outbox drain in the background
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	publisher := kafka.NewOutboxPublisher(db, producer, cfg.Kafka.TopicEvents,
		cfg.Outbox.PollInterval, cfg.Outbox.BatchSize)
	go func() {
		if err := publisher.Run(pubCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("outbox publisher stopped", "error", err)
		}
	}()

	cleanup := func() {
		stopPublisher()
		_ = producer.Close()
		_ = db.Close()
		_ = rdb.Close()
	}

	return &App{Router: router}, cleanup, nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"storefront-service/app/domain"
	handler "storefront-service/app/handler/api"
	"storefront-service/app/middleware"
	"storefront-service/app/repository/broker"
	"storefront-service/app/repository/cache"
	"storefront-service/app/repository/db"
	"storefront-service/app/repository/mailer"
	"storefront-service/app/repository/memstore"
	"storefront-service/app/usecase"
	"storefront-service/config"
	"storefront-service/pkg/logger"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	slogfiber "github.com/samber/slog-fiber"
)

type repositories struct {
	transactor domain.Transactor
	products   domain.ProductRepository
	orders     domain.OrderRepository
	movements  domain.StockMovementRepository
	users      domain.UserRepository
	ready      func() bool
	close      func() error
}

func initStorage(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		store, err := memstore.New()
		if err != nil {
			return nil, err
		}
		slog.WarnContext(ctx, "[initStorage] using in-memory storage, data is lost on restart")
		return &repositories{
			transactor: store,
			products:   memstore.NewProductRepository(store),
			orders:     memstore.NewOrderRepository(store),
			movements:  memstore.NewStockMovementRepository(store),
			users:      memstore.NewUserRepository(store),
			ready:      func() bool { return true },
			close:      func() error { return nil },
		}, nil
	}

	dbConn, err := db.NewPostgres(cfg.Db)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}
	return &repositories{
		transactor: db.NewTransactor(dbConn),
		products:   db.NewProductRepository(dbConn),
		orders:     db.NewOrderRepository(dbConn),
		movements:  db.NewStockMovementRepository(dbConn),
		users:      db.NewUserRepository(dbConn),
		ready:      pinger(dbConn),
		close:      dbConn.Close,
	}, nil
}

func pinger(conn *sql.DB) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return conn.PingContext(ctx) == nil
	}
}

func initJetStream(ctx context.Context, cfg *config.Config) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(cfg.Nats.Url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:     strings.ToUpper(cfg.Nats.StreamName),
		Subjects: []string{fmt.Sprintf("%s.*", strings.ToLower(cfg.Nats.StreamName))},
		Storage:  jetstream.FileStorage,
	})
	if err != nil && !errors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, nil, fmt.Errorf("create stream: %w", err)
	}

	return nc, js, nil
}

func main() {
	// init logger
	logger.InitLogger()

	ctx := context.Background()
	// init config
	cfg, err := config.InitConfig(ctx)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		return
	}

	// init storage
	repos, err := initStorage(ctx, cfg)
	if err != nil {
		slog.Error("storage init failed", "driver", cfg.StorageDriver, "error", err)
		return
	}
	defer repos.close()

	// messaging is optional; without NATS_URL events are only logged
	var (
		publisher domain.BrokerPublisher = broker.NewLogStockPublisher()
		js        jetstream.JetStream
	)
	if cfg.Nats.Url != "" {
		nc, stream, err := initJetStream(ctx, cfg)
		if err != nil {
			slog.Error("Error connecting to NATS", "error", err)
			return
		}
		defer nc.Drain()
		js = stream
		publisher = broker.NewStockBrokerPublisher(js, cfg.Nats.StreamName)
	}

	var notifier domain.Notifier
	switch cfg.Notifier {
	case config.NotifierNats:
		if js == nil {
			slog.Error("NOTIFIER=nats requires NATS_URL")
			return
		}
		notifier = broker.NewOrderNotifier(js, cfg.Nats.StreamName)
	case config.NotifierSmtp:
		notifier = mailer.NewSmtpNotifier(cfg.Smtp)
	default:
		notifier = broker.NewLogNotifier()
	}

	var locker domain.OrderLocker
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(cfg.Redis.Addr)
		if err != nil {
			slog.Error("Error connecting to Redis", "error", err)
			return
		}
		defer rdb.Close()
		locker = cache.NewRedisLocker(rdb, time.Duration(cfg.Redis.LockTTLMs)*time.Millisecond)
	} else {
		slog.WarnContext(ctx, "[main] REDIS_ADDR not set, order locks are process-local")
		locker = cache.NewLocalLocker()
	}

	pricing, err := domain.NewPricingRules(cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingFee, cfg.Pricing.TaxRate)
	if err != nil {
		slog.Error("Invalid pricing config", "error", err)
		return
	}
	machine := domain.StateMachine{RestockOnRevert: cfg.Order.RevertRestock}

	reqValidator := validator.New()
	productUsecase := usecase.NewProductUsecase(repos.transactor, repos.products, repos.orders, publisher)
	inventoryUsecase := usecase.NewInventoryUsecase(repos.transactor, repos.products, repos.movements, publisher)
	orderUsecase := usecase.NewOrderUsecase(repos.transactor, repos.orders, repos.products, repos.movements,
		locker, publisher, notifier, pricing)
	fulfillmentUsecase := usecase.NewFulfillmentUsecase(repos.transactor, repos.orders, repos.products, repos.movements,
		locker, publisher, notifier, machine)
	userUsecase := usecase.NewUserUsecase(repos.transactor, repos.users, repos.products)

	productHandler := handler.NewProductHandler(productUsecase, reqValidator)
	inventoryHandler := handler.NewInventoryHandler(inventoryUsecase, reqValidator)
	orderHandler := handler.NewOrderHandler(orderUsecase, fulfillmentUsecase, reqValidator)
	userHandler := handler.NewUserHandler(userUsecase, reqValidator)

	// Initialize HTTP web framework
	app := fiber.New()
	app.Use(healthcheck.New(healthcheck.Config{
		LivenessProbe: func(c *fiber.Ctx) bool {
			return true
		},
		LivenessEndpoint: "/live",
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return repos.ready()
		},
		ReadinessEndpoint: "/ready",
	}))
	webLogger := slog.New(logger.NewHandler(os.Stdout, slog.LevelInfo))
	app.Use(slogfiber.New(webLogger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))
	app.Use(middleware.RequestIDMiddleware())

	handler.SetupRouter(app, productHandler, inventoryHandler, orderHandler, userHandler, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Failed to listen", "port", cfg.Port, "error", err)
			return
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	slog.Info("Gracefully shutdown")
	err = app.Shutdown()
	if err != nil {
		slog.Warn("Unfortunately the shutdown wasn't smooth", "err", err)
	}
}

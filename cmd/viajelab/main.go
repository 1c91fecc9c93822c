package main

import (
	"context"
	"database/sql"
	"time"

	config "github.com/davicafu/viajelab/internal/config"
	notificationApp "github.com/davicafu/viajelab/internal/notification/application"
	notificationEvents "github.com/davicafu/viajelab/internal/notification/infra/inbound/events"
	notificationDirectory "github.com/davicafu/viajelab/internal/notification/infra/outbound/directory"
	notificationSMS "github.com/davicafu/viajelab/internal/notification/infra/outbound/sms"
	orderApp "github.com/davicafu/viajelab/internal/order/application"
	orderDomain "github.com/davicafu/viajelab/internal/order/domain"
	orderEvents "github.com/davicafu/viajelab/internal/order/infra/inbound/events"
	orderHttp "github.com/davicafu/viajelab/internal/order/infra/inbound/http"
	orderClickhouse "github.com/davicafu/viajelab/internal/order/infra/outbound/analytics/clickhouse"
	orderMongo "github.com/davicafu/viajelab/internal/order/infra/outbound/db/mongodb"
	orderSQLite "github.com/davicafu/viajelab/internal/order/infra/outbound/db/sqlite"
	paymentApp "github.com/davicafu/viajelab/internal/payment/application"
	paymentHttp "github.com/davicafu/viajelab/internal/payment/infra/inbound/http"
	paymentSQLite "github.com/davicafu/viajelab/internal/payment/infra/outbound/db/sqlite"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedMongo "github.com/davicafu/viajelab/internal/shared/infra/db/mongodb"
	sharedPostgres "github.com/davicafu/viajelab/internal/shared/infra/db/postgres"
	sharedSQLite "github.com/davicafu/viajelab/internal/shared/infra/db/sqlite"
	infraEvents "github.com/davicafu/viajelab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/viajelab/internal/shared/infra/platform/cache"
	infraRelayer "github.com/davicafu/viajelab/internal/shared/infra/relayer"
	sharedUtils "github.com/davicafu/viajelab/internal/shared/infra/utils"
	userApp "github.com/davicafu/viajelab/internal/user/application"
	userHttp "github.com/davicafu/viajelab/internal/user/infra/inbound/http"
	userSQLite "github.com/davicafu/viajelab/internal/user/infra/outbound/db/sqlite"
	walletApp "github.com/davicafu/viajelab/internal/wallet/application"
	walletDomain "github.com/davicafu/viajelab/internal/wallet/domain"
	walletEvents "github.com/davicafu/viajelab/internal/wallet/infra/inbound/events"
	walletHttp "github.com/davicafu/viajelab/internal/wallet/infra/inbound/http"
	walletPostgres "github.com/davicafu/viajelab/internal/wallet/infra/outbound/db/postgres"
	walletSQLite "github.com/davicafu/viajelab/internal/wallet/infra/outbound/db/sqlite"
	walletRates "github.com/davicafu/viajelab/internal/wallet/infra/outbound/rates"

	"github.com/davicafu/viajelab/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
	mongoOptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	db, err := sql.Open("sqlite", cfg.SQLitePath)
	if err != nil {
		log.Fatal("failed to open SQLite", zap.Error(err))
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping SQLite", zap.Error(err))
	}

	for _, init := range []func(*sql.DB) error{
		sharedSQLite.InitOutboxSQLite,
		orderSQLite.InitSQLite,
		walletSQLite.InitSQLite,
		paymentSQLite.InitSQLite,
		userSQLite.InitSQLite,
	} {
		if err := init(db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
	}

	// ----------- Repositorios --------------
	var outboxRepo sharedDomain.OutboxRepository = sharedSQLite.NewOutboxRepoSQLite(db)
	var walletRepo walletDomain.WalletRepository = walletSQLite.NewWalletRepoSQLite(db)

	// En despliegues no locales el ledger y el outbox van contra PostgreSQL.
	if !cfg.LocalDeployment && cfg.PostgresDSN != "" {
		pgDB, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open PostgreSQL", zap.Error(err))
		}
		defer pgDB.Close()

		// PostgreSQL puede tardar en aceptar conexiones al arrancar el stack.
		if err := sharedUtils.Retry(ctx, 5, 2*time.Second, func() error {
			return pgDB.PingContext(ctx)
		}); err != nil {
			log.Fatal("failed to ping PostgreSQL", zap.Error(err))
		}
		outboxRepo = sharedPostgres.NewOutboxRepoPostgres(pgDB)
		walletRepo = walletPostgres.NewWalletRepoPostgres(pgDB)
		log.Info("✅ PostgreSQL conectado para ledger y outbox")
	}

	var orderRepo orderDomain.OrderRepository = orderSQLite.NewOrderRepoSQLite(db)
	var mongoOutbox sharedDomain.OutboxRepository
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, mongoOptions.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(ctx)

		mongoRepo, err := orderMongo.NewOrderRepoMongoDB(ctx, mongoClient, "viajelab")
		if err != nil {
			log.Fatal("failed to initialize MongoDB repo", zap.Error(err))
		}
		orderRepo = mongoRepo
		// Las filas de outbox del contexto de pedidos viven entonces en la
		// colección outbox de Mongo; necesitan su propio relayer.
		mongoOutbox = sharedMongo.NewOutboxRepoMongoDB(mongoClient, "viajelab")
		log.Info("✅ MongoDB conectado para pedidos")
	}

	paymentRepo := paymentSQLite.NewPaymentRepoSQLite(db)
	userRepo := userSQLite.NewUserRepoSQLite(db)

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = sharedCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// ---------------- Events ---------------
	var orderPublisher sharedBus.EventPublisher
	var paymentPublisher sharedBus.EventPublisher
	var userPublisher sharedBus.EventPublisher
	var walletPublisher sharedBus.EventPublisher

	// Un único dispatcher para el proceso: cada contexto registra sus handlers
	// y después se congela.
	dispatcher := sharedBus.NewDispatcher(log)

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		newWriter := func(topic string) *kafka.Writer {
			return kafka.NewWriter(kafka.WriterConfig{
				Brokers: cfg.KafkaBrokers,
				Topic:   topic,
			})
		}

		orderWriter := newWriter(cfg.TopicOrders)
		paymentWriter := newWriter(cfg.TopicPayments)
		userWriter := newWriter(cfg.TopicUsers)
		walletWriter := newWriter(cfg.TopicWallets)
		defer orderWriter.Close()
		defer paymentWriter.Close()
		defer userWriter.Close()
		defer walletWriter.Close()

		orderPublisher = infraEvents.NewKafkaPublisher(orderWriter, log)
		paymentPublisher = infraEvents.NewKafkaPublisher(paymentWriter, log)
		userPublisher = infraEvents.NewKafkaPublisher(userWriter, log)
		walletPublisher = infraEvents.NewKafkaPublisher(walletWriter, log)
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		orderBus := infraEvents.NewInMemoryEventBus(cfg.TopicOrders)
		paymentBus := infraEvents.NewInMemoryEventBus(cfg.TopicPayments)
		userBus := infraEvents.NewInMemoryEventBus(cfg.TopicUsers)
		walletBus := infraEvents.NewInMemoryEventBus(cfg.TopicWallets)

		orderPublisher = orderBus
		paymentPublisher = paymentBus
		userPublisher = userBus
		walletPublisher = walletBus

		for _, bus := range []*infraEvents.InMemoryEventBus{orderBus, paymentBus, userBus, walletBus} {
			infraEvents.BackgroundConsumerChan(ctx, bus.Subscribe(10), dispatcher)
		}
	}

	// --------------- Servicios -------------
	clock := sharedDomain.SystemClock{}

	orderService := orderApp.NewOrderService(orderRepo, cacheInstance, clock, log)
	if cfg.ClickHouseAddr != "" {
		analytics, err := orderClickhouse.NewHistoryAnalyticsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, sin espejo de historial", zap.Error(err))
		} else {
			orderService = orderService.WithAnalytics(analytics)
			log.Info("✅ ClickHouse conectado, espejo de historial habilitado")
		}
	}

	rates := walletRates.NewStaticRateProvider(map[string]decimal.Decimal{
		"EUR:USD": decimal.NewFromFloat(1.08),
		"EUR:GBP": decimal.NewFromFloat(0.86),
	})
	walletService := walletApp.NewWalletService(walletRepo, cacheInstance, rates, walletPublisher, clock, log)
	paymentService := paymentApp.NewPaymentService(paymentRepo, clock, log)
	userService := userApp.NewUserService(userRepo, clock, log)
	notifier := notificationApp.NewNotifier(notificationSMS.NewLogSender(log), log)

	// ------------- Consumidores ------------
	orderEvents.NewOrderConsumer(orderService, log).RegisterHandlers(dispatcher)
	walletEvents.NewWalletConsumer(walletService, log).RegisterHandlers(dispatcher)
	notificationEvents.NewNotificationConsumer(
		notifier, notificationDirectory.NewUserRepoDirectory(userRepo), log,
	).RegisterHandlers(dispatcher)
	dispatcher.Freeze()

	if cfg.UseKafka {
		newReader := func(topic string) *kafka.Reader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    topic,
				GroupID:  cfg.ConsumerGroup,
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
		}

		for _, topic := range []string{cfg.TopicOrders, cfg.TopicPayments, cfg.TopicUsers, cfg.TopicWallets} {
			reader := newReader(topic)
			defer reader.Close()
			infraEvents.NewConsumerAdapter(reader, dispatcher, log).Start(ctx)
		}
	}

	// ------------ Outbox Worker ------------
	// Un único worker para todos los contextos; el router reparte cada
	// envoltura a su topic según el prefijo del tipo de evento.
	router := infraEvents.NewTopicRouter(orderPublisher).
		Route("order", orderPublisher).
		Route("payment", paymentPublisher).
		Route("user", userPublisher).
		Route("wallet", walletPublisher)

	outboxWorker := infraRelayer.NewOutboxWorker(outboxRepo, router, cfg.OutboxPeriod, cfg.OutboxLimit, cfg.OutboxMaxAttempts, log)
	go outboxWorker.Start(ctx)

	// Con Mongo como almacén de pedidos hay un segundo almacén de outbox;
	// un worker adicional lo drena hacia el mismo router.
	if mongoOutbox != nil {
		mongoWorker := infraRelayer.NewOutboxWorker(mongoOutbox, router, cfg.OutboxPeriod, cfg.OutboxLimit, cfg.OutboxMaxAttempts, log)
		go mongoWorker.Start(ctx)
	}

	// ------------- Backstops ---------------
	sweeper := orderApp.NewExpirationSweeper(orderService, cfg.SweepInterval, cfg.OrderExpiration, log)
	go sweeper.Start(ctx)

	// ---------------- HTTP ----------------
	ginRouter := gin.Default()
	orderHttp.RegisterOrderRoutes(ginRouter, orderHttp.NewOrderHandler(orderService))
	walletHttp.RegisterWalletRoutes(ginRouter, walletHttp.NewWalletHandler(walletService))
	paymentHttp.RegisterPaymentRoutes(ginRouter, paymentHttp.NewPaymentHandler(paymentService))
	userHttp.RegisterUserRoutes(ginRouter, userHttp.NewUserHandler(userService))

	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := ginRouter.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

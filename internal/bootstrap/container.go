package bootstrap

import (
	"context"
	"log"

	"ai-dataviz-be/internal/config"
	"ai-dataviz-be/internal/controller"
	"ai-dataviz-be/internal/handler"
	"ai-dataviz-be/internal/pkg/logger"
	"ai-dataviz-be/internal/pkg/mailer"
	"ai-dataviz-be/internal/repository/cache"
	"ai-dataviz-be/internal/repository/unitofwork"
	"ai-dataviz-be/internal/service"
	"ai-dataviz-be/internal/websocket"
	"ai-dataviz-be/pkg/blob"
	"ai-dataviz-be/pkg/events"
	"ai-dataviz-be/pkg/gateway"
	"ai-dataviz-be/pkg/lock"

	pktNats "ai-dataviz-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	CreditController        controller.ICreditController
	SessionController       controller.ISessionController
	VisualizationController controller.IVisualizationController
	DatasetController       controller.IDatasetController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	RealtimeService *service.RealtimeService
	AlertService    *service.AlertService

	// WebSockets
	RealtimeHandler *handler.RealtimeHandler
	WebSocketHub    *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS
	var eventPublisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	locker := lock.New(context.Background(), rdb)

	// Object storage
	var store blob.Store
	bucketName := cfg.Storage.BucketName
	if bucketName != "" {
		gcsStore, err := blob.NewGCSStore(context.Background(), cfg.Storage.ProjectId, cfg.Storage.BucketName, cfg.Storage.CredentialsPath)
		if err != nil {
			log.Printf("[WARN] Failed to initialize GCS: %v. Using in-memory storage", err)
			store = blob.NewMemoryStore(cfg.Storage.BucketName)
		} else {
			store = gcsStore
		}
	} else {
		log.Printf("[WARN] GCS_BUCKET_NAME not set. Using in-memory storage")
		bucketName = "local"
		store = blob.NewMemoryStore(bucketName)
	}

	// Generation gateway
	generator := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.ApiKey, cfg.Gateway.Timeout)
	refinementStates := cache.New(context.Background(), rdb, cfg.App.RefinementStateTTL)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/realtime.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Storage.ArchiveTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Storage.ArchiveTopic,
		uowFactory,
		store,
		cfg.Storage.ArtifactURLExpiry,
		sysLogger,
	)
	realtimeService := service.NewRealtimeService(pubSub, cfg.Storage.ArchiveTopic, wsHub, wsLogger) // Hub implements RealtimeDelivery

	creditService := service.NewCreditService(uowFactory, eventPublisher, sysLogger)
	datasetService := service.NewDatasetService(store, bucketName, cfg.Storage.DatasetURLExpiry, sysLogger)
	sessionService := service.NewSessionService(uowFactory, generator, datasetService, eventPublisher, cfg.Credits, sysLogger)
	goalService := service.NewGoalService(uowFactory, generator, cfg.Credits, sysLogger)
	visualizationService := service.NewVisualizationService(
		uowFactory,
		generator,
		refinementStates,
		locker,
		publisherService,
		eventPublisher,
		cfg.Credits,
		cfg.Gateway.Timeout,
		sysLogger,
	)

	var alertService *service.AlertService
	if natsSub != nil {
		alertService = service.NewAlertService(uowFactory, natsSub, emailService, cfg.Credits.LowCreditThreshold, sysLogger)
	}

	// 5. Controllers
	return &Container{
		CreditController:        controller.NewCreditController(creditService),
		SessionController:       controller.NewSessionController(sessionService, goalService),
		VisualizationController: controller.NewVisualizationController(visualizationService),
		DatasetController:       controller.NewDatasetController(datasetService),

		ConsumerService: consumerService,
		RealtimeService: realtimeService,
		AlertService:    alertService,

		RealtimeHandler: handler.NewRealtimeHandler(wsHub, wsLogger),
		WebSocketHub:    wsHub,
	}
}

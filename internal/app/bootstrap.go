package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Insanely-69/CelestialSword2/config"
	"github.com/Insanely-69/CelestialSword2/internal/app/dto"
	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
	"github.com/Insanely-69/CelestialSword2/internal/domain/repository"
	"github.com/Insanely-69/CelestialSword2/internal/domain/service"
	ws "github.com/Insanely-69/CelestialSword2/internal/handlers/websocket"
	redisrepo "github.com/Insanely-69/CelestialSword2/internal/infrastructure/cache"
	"github.com/Insanely-69/CelestialSword2/internal/infrastructure/queue"
	"github.com/Insanely-69/CelestialSword2/internal/infrastructure/storage"
)

// Processor defines the common interface for event processors
type Processor interface {
	Run(ctx context.Context) error
}

// AppContext holds all app dependencies
type AppContext struct {
	Config        *config.Config
	Ledger        *service.LedgerService
	Directory     *service.DirectoryService
	Reports       *service.ReportService
	Broadcaster   *ws.WebSocketBroadcaster
	Processor     Processor
	KafkaConsumer *queue.KafkaConsumer
	KafkaProducer *queue.KafkaProducer
	MsgCh         chan *dto.ChatMessageDTO
}

// NewApp initializes the app context with all dependencies
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*AppContext, error) {
	app := &AppContext{Config: cfg}

	// Durable document store: the source of truth for ledger and roster
	store, err := storage.NewFileStore(cfg.DataDir, log)
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}
	log.Info("document store initialized", slog.String("dir", cfg.DataDir))

	// Snapshot cache (Redis)
	var cache repository.SnapshotCache
	cache = redisrepo.NewRedisRepository(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	log.Info("Redis snapshot cache initialized")

	// Try to initialize the analytical event archive (ClickHouse)
	var archive repository.EventArchive
	chConfig := storage.ClickHouseConfig{
		Addr:     cfg.ClickhouseAddr,
		Username: cfg.ClickhouseUsername,
		Password: cfg.ClickhousePassword,
		Timeout:  cfg.ClickhouseTimeout,
	}
	clickhouseRepo, err := storage.NewClickHouseRepository(chConfig)
	if err != nil {
		log.Warn("failed to connect to ClickHouse, continuing without event archive", slog.String("error", err.Error()))
	} else {
		archive = clickhouseRepo
		log.Info("ClickHouse event archive initialized")
	}

	// Core services
	sweepInterval := time.Duration(cfg.SweepIntervalMinutes) * time.Minute
	app.Ledger, err = service.NewLedgerService(store, cache, archive, log, sweepInterval)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	app.Directory, err = service.NewDirectoryService(store, log)
	if err != nil {
		return nil, fmt.Errorf("init directory: %w", err)
	}
	app.Reports = service.NewReportService()
	log.Info("ledger and directory services initialized")

	// Setup broadcaster
	app.Broadcaster = ws.NewWebSocketBroadcaster()

	// Setup Kafka configuration
	kafkaConfig := queue.KafkaConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		ConsumerGroup: cfg.KafkaConsumerGroup,
		BatchSize:     cfg.KafkaBatchSize,
		BatchTimeout:  cfg.KafkaBatchTimeout,
	}
	app.KafkaConsumer = queue.NewKafkaConsumer(kafkaConfig)

	if app.KafkaConsumer != nil {
		log.Info("using Kafka for event consumption")

		msgChannel, err := app.KafkaConsumer.Subscribe(ctx)
		if err != nil {
			return nil, fmt.Errorf("subscribe to Kafka: %w", err)
		}

		app.MsgCh = convertMessageChannel(msgChannel)
		app.Processor = NewEventProcessor(app.MsgCh, app.Ledger, app.Directory, app.Broadcaster, cfg.SourceBotID, cfg.SourceChannelID)

		app.KafkaProducer = queue.NewKafkaProducer(kafkaConfig)
		log.Info("Kafka consumer and producer initialized")
	} else {
		log.Info("Kafka not configured, using direct channel")
		app.MsgCh = make(chan *dto.ChatMessageDTO, cfg.EventBufferSize)
		app.Processor = NewEventProcessor(app.MsgCh, app.Ledger, app.Directory, app.Broadcaster, cfg.SourceBotID, cfg.SourceChannelID)
	}

	return app, nil
}

// convertMessageChannel converts a channel of domain models to a channel of DTOs
func convertMessageChannel(modelCh <-chan *model.ChatMessage) chan *dto.ChatMessageDTO {
	dtoCh := make(chan *dto.ChatMessageDTO)

	go func() {
		for msg := range modelCh {
			if msg != nil {
				dtoCh <- dto.FromModel(msg)
			}
		}
		close(dtoCh)
	}()

	return dtoCh
}

// Cleanup performs graceful shutdown of all components
func (a *AppContext) Cleanup(ctx context.Context, log *slog.Logger) {
	if a.KafkaConsumer != nil {
		log.Info("closing Kafka consumer")
		if err := a.KafkaConsumer.Close(); err != nil {
			log.Error("error closing Kafka consumer", slog.String("error", err.Error()))
		}
	}

	if a.KafkaProducer != nil {
		log.Info("closing Kafka producer")
		if err := a.KafkaProducer.Close(); err != nil {
			log.Error("error closing Kafka producer", slog.String("error", err.Error()))
		}
	}

	log.Info("all resources cleaned up")
}

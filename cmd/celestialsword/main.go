package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Insanely-69/CelestialSword2/config"
	"github.com/Insanely-69/CelestialSword2/internal/app"
	"github.com/Insanely-69/CelestialSword2/internal/app/dto"
	"github.com/Insanely-69/CelestialSword2/internal/handlers/http"
	"github.com/Insanely-69/CelestialSword2/internal/lib/logger/handlers/slogpretty"
	"github.com/Insanely-69/CelestialSword2/pkg/utils"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	// Initialize app
	log.Info("Initializing app...")

	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	// Start event processor
	log.Info("Starting event processor...")
	go application.Processor.Run(ctx)

	// !!! For DEMO purposes, generate synthetic game-bot chatter
	// This is not for production use!
	if cfg.Env == envLocal {
		generator := utils.NewMessageGenerator("123456789012345678", cfg.SourceChannelID, cfg.SourceBotID)
		go func() {
			log.Info("Starting demo message generator...")
			for ctx.Err() == nil {
				msgs := generator.GenerateMessages(100)
				msgDtos := dto.FromModels(msgs)
				if application.KafkaProducer != nil {
					if err := application.KafkaProducer.PublishMessageBatch(ctx, msgDtos); err != nil && ctx.Err() == nil {
						log.Warn(fmt.Sprintf("Failed to publish demo batch: %v", err))
					}
				} else {
					for _, msgDto := range msgDtos {
						select {
						case application.MsgCh <- msgDto:
						case <-ctx.Done():
							log.Info("Demo message generator stopped")
							return
						}
					}
				}
				time.Sleep(100 * time.Millisecond)
			}
			log.Info("Demo message generator stopped")
		}()
	}
	// !!! End of DEMO message generation

	// Weekly summary scheduler: posts each guild's report when a window closes
	go runSummaryScheduler(ctx, application, log)

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", application.Config.HTTPPort)
	httpServer := http.NewServer(httpAddr, application.Ledger, application.Directory, application.Reports, application.Broadcaster)

	// Start HTTP server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Clean up app resources
	log.Info("Cleaning up app resources...")
	application.Cleanup(ctx, log)

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server with timeout
	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Info(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	// Add a small delay to allow shutdown handlers to complete
	timer := time.NewTimer(500 * time.Millisecond)
	select {
	case <-timer.C:
	case <-shutdownCtx.Done():
	}

	log.Info("Service stopped.")
}

// runSummaryScheduler logs each guild's weekly summary every Sunday. The
// check runs daily so a restart mid-week does not skip a summary day.
func runSummaryScheduler(ctx context.Context, application *app.AppContext, log *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Weekday() != time.Sunday {
				continue
			}
			for _, guild := range application.Ledger.Guilds() {
				snap, err := application.Ledger.Snapshot(ctx, guild)
				if err != nil {
					log.Warn(fmt.Sprintf("Failed to build summary for guild %s: %v", guild, err))
					continue
				}
				log.Info("Weekly summary", slog.String("guild", guild))
				fmt.Println(application.Reports.WeeklySummary(snap))
			}
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/unclebandit/campaign-engine/internal/config"
	"github.com/unclebandit/campaign-engine/internal/controller"
	"github.com/unclebandit/campaign-engine/internal/db"
	"github.com/unclebandit/campaign-engine/internal/handler"
	"github.com/unclebandit/campaign-engine/internal/logging"
	"github.com/unclebandit/campaign-engine/internal/model"
	"github.com/unclebandit/campaign-engine/internal/queue"
	"github.com/unclebandit/campaign-engine/internal/repository"
	"github.com/unclebandit/campaign-engine/internal/service"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logging.New("server")
	if envErr != nil {
		log.Debug().Msg("no .env file found, relying on process environment")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Str("tz", cfg.Timezone).Msg("invalid timezone, falling back to UTC")
		loc = time.UTC
	}

	// Registry: Postgres when configured, in-memory otherwise.
	var registry repository.CampaignRegistryInterface
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		conn, err := db.Open()
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer conn.Close()
		registry = &repository.CampaignRepository{DB: conn}
		log.Info().Msg("using postgres campaign registry")
	} else {
		registry = repository.NewMemoryCampaignRepository()
		log.Info().Msg("using in-memory campaign registry")
	}

	// Result fan-out: AMQP when configured, in-process otherwise.
	var publisher queue.Publisher
	if cfg.AMQPURL != "" {
		p, err := queue.NewAMQPPublisher(cfg.AMQPURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connection failed")
		}
		defer p.Close()
		publisher = p
		log.Info().Msg("publishing execution results to amqp")
	} else {
		q := queue.NewInMemoryQueue(log)
		q.Subscribe(queue.TopicResults, func(payload any) error {
			if res, ok := payload.(*model.ExecutionResult); ok {
				log.Info().
					Str("campaign", res.CampaignID).
					Int("created", res.PostsCreated).
					Int("succeeded", res.PostsSucceeded).
					Msg("execution result")
			}
			return nil
		})
		publisher = q
	}

	generator := &service.TemplateContentGenerator{}
	distributor := service.NewSimulatedDistributor(cfg.DistributorSuccessRate, 0)

	coordinator := service.NewExecutionCoordinator(
		generator, distributor,
		cfg.InterPostDelay, cfg.RetryBackoff, cfg.CallTimeout,
		log,
	)
	aggregator := service.NewPerformanceAggregator(registry, cfg.HistorySize, log)
	optimizer := service.NewScheduleOptimizer(aggregator)
	projector := service.NewCalendarProjector(optimizer, 0)

	scheduler := service.NewSchedulerCore(registry, coordinator, aggregator, publisher, loc, cfg.TickInterval, log)
	campaignService := service.NewCampaignService(registry, aggregator, optimizer, loc, log)

	campaignController := &controller.CampaignController{
		CampaignService: campaignService,
	}
	analyticsHandler := &handler.AnalyticsHandler{
		Service:   campaignService,
		Optimizer: optimizer,
		Projector: projector,
	}

	r := chi.NewRouter()

	// Campaign lifecycle routes
	r.Post("/campaigns", campaignController.CreateCampaign)
	r.Get("/campaigns", campaignController.ListCampaigns)
	r.Get("/campaigns/{id}", campaignController.GetCampaign)
	r.Post("/campaigns/{id}/pause", campaignController.PauseCampaign)
	r.Post("/campaigns/{id}/resume", campaignController.ResumeCampaign)
	r.Delete("/campaigns/{id}", campaignController.DeleteCampaign)

	// Read-side routes
	r.Get("/campaigns/{id}/analytics", analyticsHandler.GetAnalyticsHandler)
	r.Get("/campaigns/{id}/recommendations", analyticsHandler.GetRecommendationsHandler)
	r.Get("/calendar", analyticsHandler.GetCalendarHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

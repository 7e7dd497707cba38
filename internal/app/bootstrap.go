package app

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"blip_sim/internal/domain"
	"blip_sim/internal/engine"
	"blip_sim/internal/event"
	"blip_sim/internal/generator"
	"blip_sim/internal/infra"
	"blip_sim/internal/infra/storage"
	"blip_sim/internal/server"
	"blip_sim/internal/service"
	"blip_sim/internal/strategy"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config    *infra.Config
	Storage   *storage.Storage // nil when the ledger is disabled
	RateFeed  *infra.RateFeed  // nil without rate_feed.url
	Dashboard *service.DashboardService
	Simulator *engine.Simulator
	Hub       *server.Hub
	Handler   http.Handler
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration and wires every component. Nothing is started.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Blip simulator...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if errors.Is(err, domain.ErrConfigNotFound) {
		slog.Warn("Config file not found, using defaults", slog.String("path", configPath))
		cfg = infra.DefaultConfig()
		err = nil
	}
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Initialize Storage (settlement ledger)
	if cfg.Storage.Path != infra.StorageDisabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		slog.Info("✅ Settlement ledger initialized")
	}

	// 4. Rate feed
	if cfg.RateFeed.URL != "" {
		b.RateFeed = infra.NewRateFeed(cfg.RateFeed.URL, cfg.RateFeed.PollIntervalSec, nil)
		slog.Info("✅ Rate feed configured", slog.String("url", cfg.RateFeed.URL))
	}

	// 5. Generator, matcher, simulator
	seed := cfg.Simulator.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	slog.Info("Random source seeded", slog.Uint64("seed", seed))

	genOpts := []generator.Option{
		generator.WithLocale(cfg.Simulator.Locale),
		generator.WithCurrency(cfg.RateFeed.Currency),
	}
	if b.RateFeed != nil {
		genOpts = append(genOpts, generator.WithBaseRate(b.RateFeed))
	}
	gen := generator.New(rand.New(rand.NewPCG(seed, 1)), genOpts...)
	matcher := strategy.NewProbabilistic(cfg.Simulator.AutoMatchProbability, rand.New(rand.NewPCG(seed, 2)))

	b.Dashboard = service.NewDashboardService(cfg.Simulator.VisibleItems)

	simOpts := []engine.Option{
		engine.WithOnUpdate(b.Dashboard.Publish),
		engine.WithMetrics(infra.GlobalMetrics),
	}
	if b.Storage != nil {
		simOpts = append(simOpts, engine.WithLedger(b.Storage))
	}
	b.Simulator = engine.NewSimulator(SimulatorSettings(cfg), gen, matcher, simOpts...)
	b.Dashboard.Publish(b.Simulator.Snapshot())
	slog.Info("✅ Simulator mounted", slog.Float64("auto_match_probability", matcher.Probability()))

	// 6. HTTP surface
	b.Hub = server.NewHub(infra.GlobalMetrics, b.Dashboard.Dashboard, cfg.Server.AllowedOrigins)
	deps := server.Deps{
		Commands:       b.Simulator,
		Dashboard:      b.Dashboard,
		Metrics:        infra.GlobalMetrics,
		Hub:            b.Hub,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if b.Storage != nil {
		deps.Ledger = b.Storage
	}
	b.Handler = server.NewRouter(deps)

	return nil
}

// Start launches the background goroutines: the simulator loop, the dashboard
// fan-out to WebSocket clients, and the rate feed.
func (b *Bootstrap) Start(ctx context.Context) {
	b.Dashboard.Subscribe(b.Hub.Broadcast)
	b.Dashboard.StartUpdateProcessor(ctx)

	event.Warmup()
	go b.Simulator.Run(ctx)

	if b.RateFeed != nil {
		if err := b.RateFeed.Start(ctx); err != nil {
			slog.Error("Failed to start rate feed", slog.Any("error", err))
		}
	}
}

// Close releases everything Start and Initialize acquired.
func (b *Bootstrap) Close() {
	if b.RateFeed != nil {
		b.RateFeed.Stop()
	}
	if b.Hub != nil {
		b.Hub.Close()
	}
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Error("Failed to close ledger", slog.Any("error", err))
		}
	}
}

// SimulatorSettings converts the simulator section of cfg into engine settings.
func SimulatorSettings(cfg *infra.Config) engine.Settings {
	sim := cfg.Simulator
	s := engine.DefaultSettings()
	s.AdmissionInterval = ms(sim.AdmissionIntervalMS)
	s.AutoMatchInterval = ms(sim.AutoMatchIntervalMS)
	s.ProgressInterval = ms(sim.ProgressIntervalMS)
	s.NotificationTTL = ms(sim.NotificationTTLMS)
	s.NewQueueCap = sim.NewQueueCap
	s.ProgressStep = sim.ProgressStep
	s.AcceptProgress = sim.AcceptProgress
	s.AutoMatchProgress = sim.AutoMatchProgress
	s.CompletedCapacity = sim.CompletedCapacity
	s.Speed = sim.Speed
	s.TickResolution = ms(sim.TickResolutionMS)
	return s
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

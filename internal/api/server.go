package api

import (
	"log"
	"os"
	"strings"
	"time"

	"daynav/internal/config"
	"daynav/internal/engine"
	"daynav/internal/geocode"
	"daynav/internal/store"
	"daynav/internal/travel"
	"daynav/internal/webhooks"
)

type Server struct {
	Cfg      config.Config
	Store    store.Store
	Engine   *engine.Engine
	Pub      *webhooks.Publisher
	Broker   EventBroker
	Geocoder *geocode.Client
}

// NewServer wires the server from config. With no DATABASE_URL it uses the
// in-memory store; with no OSRM_URL travel costs come from the haversine
// estimator; with REDIS_URL both the travel cache and the event broker run
// on Redis.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if os.Getenv("DB_MIGRATE") != "false" {
			_ = sp.MigrateDir("db/migrations")
		}
		s = sp
	}

	est := travel.HaversineEstimator{}
	var src engine.CostSource
	if cfg.OSRMURL != "" {
		src = travel.NewOSRM(cfg.OSRMURL)
	} else {
		src = travel.EstimateSource{E: est}
	}
	if cfg.RedisURL != "" {
		if cached, err := travel.NewRedisCache(cfg.RedisURL, src, cfg.TravelCacheTTL()); err == nil {
			src = cached
		} else {
			log.Printf("travel cache disabled: %v", err)
		}
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil { broker = rb } else { broker = NewBroker() }
	} else {
		broker = NewBroker()
	}

	eng := engine.New(engine.Config{
		ExactThreshold:         cfg.Engine.ExactThreshold,
		TwoOptIterationCap:     cfg.Engine.TwoOptIterationCap,
		DefaultServiceDuration: time.Duration(cfg.Engine.DefaultServiceMinutes) * time.Minute,
		MaxFallbackCandidates:  cfg.Engine.MaxFallbackCandidates,
	}, src, est)

	return &Server{
		Cfg:      cfg,
		Store:    s,
		Engine:   eng,
		Pub:      webhooks.NewPublisher(s),
		Broker:   broker,
		Geocoder: geocode.NewClient(cfg.NominatimURL, cfg.UserAgent),
	}, nil
}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
	return webhooks.NewWorker(s.Store)
}

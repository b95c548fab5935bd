package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/javajack/sheetsync"
)

// Service is the runnable spreadsheet server.
type Service interface {
	// Run starts the HTTP server and blocks until it stops.
	Run() error

	// Router exposes the configured gin engine for integration tests.
	Router() *gin.Engine

	// Close stops the relay hub and releases resources.
	Close()
}

type service struct {
	config  Config
	router  *gin.Engine
	hub     *Hub
	metrics *Metrics
	cancel  context.CancelFunc
}

// New builds the document, relay hub and router from cfg and starts the
// hub goroutine, so the returned service is immediately usable both via
// Run and via Router in tests.
func New(cfg Config, logger *slog.Logger) (Service, error) {
	cfg = applyConfigDefaults(cfg)
	if logger == nil {
		logger = slog.Default()
	}

	var order sheetsync.DateOrder
	switch cfg.DateOrder {
	case "mdy":
		order = sheetsync.MonthFirst
	case "dmy":
		order = sheetsync.DayFirst
	default:
		return nil, fmt.Errorf("invalid date_order %q (want mdy or dmy)", cfg.DateOrder)
	}

	doc := sheetsync.NewDocument(
		sheetsync.WithTitle(cfg.Title),
		sheetsync.WithDimensions(cfg.Rows, cfg.Columns),
		sheetsync.WithDateOrder(order),
		sheetsync.WithStrictNumeric(cfg.StrictNumeric),
	)

	metrics := NewMetrics()
	hub := NewHub(doc, logger, metrics)

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	h := &handlers{
		hub:    hub,
		filter: sheetsync.NewFilter(),
		logger: logger,
	}
	h.registerRoutes(router, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	return &service{
		config:  cfg,
		router:  router,
		hub:     hub,
		metrics: metrics,
		cancel:  cancel,
	}, nil
}

func (s *service) Run() error {
	defer s.Close()
	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("starting sheetsync server", "port", s.config.Port, "title", s.config.Title)
	return s.router.Run(addr)
}

func (s *service) Router() *gin.Engine {
	return s.router
}

func (s *service) Close() {
	s.cancel()
}

var _ Service = (*service)(nil)

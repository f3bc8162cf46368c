// Package web provides the dashboard and observability surface: task
// state and conversation history over REST, a live turn feed over
// websocket, and Prometheus metrics.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-taskist/internal/config"
	"github.com/teslashibe/go-taskist/internal/log"
	"github.com/teslashibe/go-taskist/pkg/hub"
	"github.com/teslashibe/go-taskist/pkg/pipeline"
	"github.com/teslashibe/go-taskist/pkg/store"
)

// Status is the dashboard's view of the running loop.
type Status struct {
	UserID         string `json:"user_id"`
	Category       string `json:"category"`
	TurnsCompleted int    `json:"turns_completed"`
	LastHeard      string `json:"last_heard"`
	LastResponse   string `json:"last_response"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	FeedClients    int    `json:"feed_clients"`
}

// Options configures the dashboard server.
type Options struct {
	Addr         string
	Store        *store.Store
	Conversation *pipeline.Conversation
	Config       config.Pipeline

	// Gatherer serves /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	addr string

	store *store.Store
	conv  *pipeline.Conversation
	cfg   config.Pipeline

	feedHub *hub.Hub

	mu        sync.RWMutex
	turns     int
	lastHeard string
	lastReply string
	startedAt time.Time
}

// NewServer creates a dashboard server. Call Start or StartAsync to
// serve it.
func NewServer(opts Options) *Server {
	s := &Server{
		addr:      opts.Addr,
		store:     opts.Store,
		conv:      opts.Conversation,
		cfg:       opts.Config,
		feedHub:   hub.New("feed"),
		startedAt: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Taskist Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/healthz", s.handleHealthz)
	if opts.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(
			promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/tasks", s.handleAllTasks)
	api.Get("/tasks/:user/:category", s.handleUserTasks)
	api.Get("/conversation", s.handleConversation)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", websocket.New(s.handleFeedWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Start runs the hub loop and serves until Shutdown.
func (s *Server) Start() error {
	go s.feedHub.Run()
	log.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server failed", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// feedEvent is one message on the live feed.
type feedEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// PublishTurn records a completed turn and pushes it to feed clients.
func (s *Server) PublishTurn(turn pipeline.Turn) {
	s.mu.Lock()
	s.turns++
	s.lastHeard = turn.Heard
	s.lastReply = turn.Response
	s.mu.Unlock()

	if err := s.feedHub.BroadcastJSON(feedEvent{Type: "turn", Data: turn}); err != nil {
		log.Warn("broadcasting turn failed", "error", err)
	}
}

// PublishChange pushes a task store change to feed clients.
func (s *Server) PublishChange(ev store.ChangeEvent) {
	if err := s.feedHub.BroadcastJSON(feedEvent{Type: "change", Data: ev}); err != nil {
		log.Warn("broadcasting change failed", "error", err)
	}
}

// handleFeedWS attaches a feed client to the hub.
func (s *Server) handleFeedWS(c *websocket.Conn) {
	client := hub.NewClient(s.feedHub, c)
	client.Run()
}

// Package server exposes the feeds and the publish endpoint over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"subject-feed/src/broker"
	"subject-feed/src/consumer"
	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/publish"
	"subject-feed/src/store"
)

// Publisher publishes one message on behalf of a principal.
type Publisher interface {
	Publish(ctx context.Context, subject string, content string, principal contracts.Principal) (publish.Result, error)
}

// Pinger probes broker connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConsumerStatus reports the consumer loop's health.
type ConsumerStatus interface {
	State() consumer.State
	Healthy() bool
	Offsets() map[broker.TopicPartition]int64
}

// Deps are the collaborators the server reads from and writes to.
// Broker and Consumer may be nil; health then skips that check.
type Deps struct {
	Feed      store.Feed
	Publisher Publisher
	Broker    Pinger
	Consumer  ConsumerStatus
	Logger    logger.Logger
}

// CustomValidator adapts go-playground/validator to echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Server is the HTTP surface over the feed store and publisher.
type Server struct {
	e         *echo.Echo
	feed      store.Feed
	publisher Publisher
	broker    Pinger
	consumer  ConsumerStatus
	logger    logger.Logger
}

// New builds the echo instance and registers every route.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}

	s := &Server{
		e:         echo.New(),
		feed:      deps.Feed,
		publisher: deps.Publisher,
		broker:    deps.Broker,
		consumer:  deps.Consumer,
		logger:    log,
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Validator = &CustomValidator{validator: validator.New()}
	s.e.HTTPErrorHandler = s.errorHandler

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestID())
	s.e.Use(RequestLogger(log))

	s.e.GET("/health", s.health)
	s.e.GET("/api/subjects", s.listSubjects)
	s.e.GET("/api/subjects/:subject", s.getFeed)
	if s.publisher != nil {
		s.e.POST("/api/subjects/:subject", s.publishMessage, RequirePrincipal)
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("[Server] Listening on %s", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("[Server] Shutting down HTTP server")
	return s.e.Shutdown(ctx)
}

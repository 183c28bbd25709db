package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	palmHandler "palm-reader/internal/api/palm/handler"
	palmService "palm-reader/internal/api/palm/service"
	"palm-reader/internal/landmark"
	"palm-reader/internal/middleware"
	"palm-reader/internal/reading"
	"palm-reader/internal/store"
	"palm-reader/pkg/llm"
	"palm-reader/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine     *fiber.App
	log        *logrus.Logger
	middleware middleware.Middleware
	validator  *validator.Validate
	utils      utils.IUtils
	store      *store.Store
	landmarks  landmark.Provider
	chatClient llm.IChatClient
	handlers   []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.store == nil {
		return nil, fmt.Errorf("analysis store is required")
	}
	if server.landmarks == nil {
		return nil, fmt.Errorf("landmark provider is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithStore() ServerOption {
	return func(s *Server) error {
		root := os.Getenv("DATA_DIR")
		if root == "" {
			root = "./data"
		}

		st, err := store.Open(root)
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to open analysis store: %v", err)
			}
			return fmt.Errorf("failed to open analysis store: %w", err)
		}
		s.store = st
		return nil
	}
}

func WithLandmarkProvider() ServerOption {
	return func(s *Server) error {
		endpoint := os.Getenv("LANDMARK_SERVICE_URL")
		if endpoint == "" {
			return fmt.Errorf("LANDMARK_SERVICE_URL is not set")
		}
		s.landmarks = landmark.NewHTTPProvider(endpoint)
		return nil
	}
}

func WithChatClient() ServerOption {
	return func(s *Server) error {
		if !llm.Configured() {
			if s.log != nil {
				s.log.Warn("No chat API key configured, readings fall back to rules")
			}
			return nil
		}
		s.chatClient = llm.NewChatClient()
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	analyzer := reading.NewAnalyzer(s.chatClient, s.log)

	palmServices := palmService.NewPalmService(s.log, s.store, s.landmarks, analyzer)
	palmHandlers := palmHandler.New(s.log, s.validator, s.middleware, palmServices, s.utils)

	s.setupHealthCheck()
	s.engine.Static("/images", s.store.ImagesDir())

	s.handlers = append(s.handlers, palmHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown() error {
	return s.engine.Shutdown()
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Palm reader API is running",
		})
	})
}

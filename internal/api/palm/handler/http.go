package palmHandler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	palmService "palm-reader/internal/api/palm/service"
	"palm-reader/internal/middleware"
	"palm-reader/pkg/utils"
)

type PalmHandler struct {
	log         *logrus.Logger
	validator   *validator.Validate
	middleware  middleware.Middleware
	palmService palmService.IPalmService
	utils       utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ps palmService.IPalmService,
	utils utils.IUtils,
) *PalmHandler {
	return &PalmHandler{
		log:         log,
		validator:   validator,
		middleware:  middleware,
		palmService: ps,
		utils:       utils,
	}
}

func (h *PalmHandler) Start(srv fiber.Router) {
	palm := srv.Group("/palm")
	palm.Post("/detect", h.middleware.NewRateLimiter, h.DetectPalm)
	palm.Post("/analyze", h.middleware.NewRateLimiter, h.AnalyzePalm)
	palm.Post("/correct", h.CorrectPalm)
	palm.Get("/analyses/:id", h.GetAnalysis)
}

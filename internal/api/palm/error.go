package palm

import (
	"net/http"

	"palm-reader/pkg/response"
)

var (
	ErrNoImage          = response.NewError(http.StatusBadRequest, "image file is required")
	ErrInvalidImage     = response.NewError(http.StatusBadRequest, "invalid image file")
	ErrCleanImageLost   = response.NewError(http.StatusInternalServerError, "failed to load the original image")
	ErrLandmarksOffline = response.NewError(http.StatusBadGateway, "landmark service unavailable")
)

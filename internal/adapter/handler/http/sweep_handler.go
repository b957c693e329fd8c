package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	domainErrors "github.com/ranktrackhq/billing-service/internal/domain/errors"
	"github.com/ranktrackhq/billing-service/internal/usecase"
	apperrors "github.com/ranktrackhq/billing-service/pkg/errors"
	"go.uber.org/zap"
)

// SweepHandler exposes the manual expiry sweep trigger for operators.
type SweepHandler struct {
	sweeper *usecase.ExpirySweeper
	logger  *zap.Logger
}

func NewSweepHandler(sweeper *usecase.ExpirySweeper, logger *zap.Logger) *SweepHandler {
	return &SweepHandler{
		sweeper: sweeper,
		logger:  logger,
	}
}

// TriggerSweep runs one expiry sweep on demand. A sweep already in progress
// answers 409 rather than queueing a second run.
func (h *SweepHandler) TriggerSweep(c echo.Context) error {
	result, err := h.sweeper.Sweep(c.Request().Context())
	if err != nil {
		if apperrors.Is(err, domainErrors.ErrSweepAlreadyRunning) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": err.Error(),
				"code":  apperrors.ErrConflict,
			})
		}

		h.logger.Error("Manual sweep failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": err.Error(),
			"code":  apperrors.ErrInternal,
		})
	}

	return c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/utils"
	"github.com/sirupsen/logrus"
)

// CNPJHandler handles identifier validation requests. It never calls the
// remote registry.
type CNPJHandler struct {
	logger *logrus.Logger
}

// NewCNPJHandler creates a new CNPJ handler
func NewCNPJHandler(logger *logrus.Logger) *CNPJHandler {
	return &CNPJHandler{logger: logger}
}

// Validate handles single CNPJ validation
// @Summary Validate a CNPJ
// @Description Normalize a CNPJ and check its length, sequence and check digits
// @Tags CNPJ
// @Produce json
// @Param cnpj path string true "CNPJ, formatted or not" example(11444777000161)
// @Success 200 {object} utils.CNPJInfo
// @Router /cnpj/{cnpj}/validate [get]
func (h *CNPJHandler) Validate(c *gin.Context) {
	info := utils.AnalyzeCNPJ(c.Param("cnpj"))

	h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"cnpj":       info.Normalized,
		"valid":      info.Validation.Valid,
	}).Debug("CNPJ validated")

	c.JSON(http.StatusOK, info)
}

// ValidateBatch handles batch CNPJ validation
// @Summary Validate multiple CNPJs
// @Description Normalize and validate up to 1000 CNPJs in one request
// @Tags CNPJ
// @Accept json
// @Produce json
// @Param request body models.ValidateBatchRequest true "Batch validation request"
// @Success 200 {object} models.ValidateBatchResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /cnpj/validate [post]
func (h *CNPJHandler) ValidateBatch(c *gin.Context) {
	requestID := c.GetString("request_id")

	var request models.ValidateBatchRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Invalid batch request format")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request format",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	response := models.ValidateBatchResponse{
		Results: make([]utils.CNPJInfo, 0, len(request.CNPJs)),
		Total:   len(request.CNPJs),
	}
	for _, raw := range request.CNPJs {
		info := utils.AnalyzeCNPJ(raw)
		if info.Validation.Valid {
			response.Valid++
		} else {
			response.Invalid++
		}
		response.Results = append(response.Results, info)
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"total":      response.Total,
		"valid":      response.Valid,
		"invalid":    response.Invalid,
	}).Info("Batch CNPJ validation completed")

	c.JSON(http.StatusOK, response)
}

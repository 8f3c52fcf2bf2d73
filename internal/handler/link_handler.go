package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/Kosench/qlink/internal/errors"
	"github.com/Kosench/qlink/internal/model"
	"github.com/Kosench/qlink/internal/utils"
	"github.com/gin-gonic/gin"
)

// LinkService - то, что нужно обработчикам от сервисного слоя
type LinkService interface {
	CreateLink(ctx context.Context, rawURL string) (*model.CreateLinkResponse, error)
	ListLinks(ctx context.Context) ([]model.LinkView, error)
	UpdateLink(ctx context.Context, shortCode, manageCode, newURL string) (model.UpdateResult, error)
	DeleteLink(ctx context.Context, shortCode, manageCode string) error
	Resolve(ctx context.Context, shortCode string) (string, error)
}

type LinkHandler struct {
	linkService LinkService
	logger      *slog.Logger
}

func NewLinkHandler(linkService LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
		logger:      logger,
	}
}

// RegisterRoutes вешает API и редирект на router
func (h *LinkHandler) RegisterRoutes(router gin.IRouter) {
	api := router.Group("/api")
	{
		api.GET("/links", h.ListLinks)
		api.POST("/links", h.CreateLink)
		api.POST("/update-link", h.UpdateLink)
		api.DELETE("/links/:shortCode", h.DeleteLink)
	}

	router.GET("/l/:shortCode", h.Redirect)
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	links, err := h.linkService.ListLinks(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, links)
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req model.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, "url", "Request body must be JSON with a \"url\" string")
		return
	}

	response, err := h.linkService.CreateLink(c.Request.Context(), req.URL)
	if err != nil {
		if apperrors.Kind(err) == apperrors.KindValidation {
			h.handleError(c, err)
			return
		}

		// Любой другой сбой создания - 500 без подробностей
		h.logError(c, "failed to create short link", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create short link",
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkHandler) UpdateLink(c *gin.Context) {
	manageCode := utils.ExtractManageCode(c.GetHeader("Authorization"))

	var req model.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, "", "Request body must be JSON with \"short_code\" and \"new_url\" strings")
		return
	}

	result, err := h.linkService.UpdateLink(c.Request.Context(), req.ShortCode, manageCode, req.NewURL)
	if err != nil {
		switch apperrors.Kind(err) {
		case apperrors.KindNotFound:
			c.JSON(http.StatusNotFound, model.UpdateLinkResponse{Success: false, Message: "Shortcode not found"})
		case apperrors.KindUnauthorized:
			c.JSON(http.StatusUnauthorized, model.UpdateLinkResponse{Success: false, Message: "Invalid manage code"})
		case apperrors.KindValidation:
			h.handleError(c, err)
		default:
			h.logError(c, "failed to update short link", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to update shortlink URL",
			})
		}
		return
	}

	c.JSON(http.StatusOK, model.UpdateLinkResponse{
		Success: true,
		Message: result.Message(),
	})
}

func (h *LinkHandler) DeleteLink(c *gin.Context) {
	shortCode := c.Param("shortCode")
	manageCode := utils.ExtractManageCode(c.GetHeader("Authorization"))

	err := h.linkService.DeleteLink(c.Request.Context(), shortCode, manageCode)
	if err != nil {
		switch apperrors.Kind(err) {
		case apperrors.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{
				"error": fmt.Sprintf("Link with code %s not found.", shortCode),
			})
		default:
			h.handleError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Link with code %s deleted successfully.", shortCode),
	})
}

func (h *LinkHandler) Redirect(c *gin.Context) {
	shortCode := c.Param("shortCode")

	originalURL, err := h.linkService.Resolve(c.Request.Context(), shortCode)
	if err != nil {
		switch apperrors.Kind(err) {
		case apperrors.KindNotFound, apperrors.KindValidation:
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Link not found",
			})
		default:
			h.handleError(c, err)
		}
		return
	}

	// HTTP 302 - временный редирект
	c.Redirect(http.StatusFound, originalURL)
}

func (h *LinkHandler) invalidRequest(c *gin.Context, field, message string) {
	body := gin.H{
		"error":   "invalid_request",
		"message": message,
	}
	if field != "" {
		body["field"] = field
	}
	c.JSON(http.StatusBadRequest, body)
}

// handleError переводит ошибку в HTTP ответ по ее виду
func (h *LinkHandler) handleError(c *gin.Context, err error) {
	switch apperrors.Kind(err) {
	case apperrors.KindValidation:
		validationErr := apperrors.GetValidationError(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": validationErr.Message,
			"field":   validationErr.Field,
		})
	case apperrors.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "link_not_found",
			"message": "Link not found",
		})
	case apperrors.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Invalid manage code",
		})
	case apperrors.KindConflict:
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": "Short code already exists",
		})
	default:
		// StorageError и прочее: логируем причину, наружу - общий ответ
		h.logError(c, "request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}
}

// logError пишет ошибку вместе с кодом BusinessError, если он есть
func (h *LinkHandler) logError(c *gin.Context, msg string, err error) {
	attrs := []any{"error", err, "kind", apperrors.Kind(err).String()}
	if businessErr := apperrors.GetBusinessError(err); businessErr != nil {
		attrs = append(attrs, "code", businessErr.Code)
	}
	h.logger.ErrorContext(c.Request.Context(), msg, attrs...)
}

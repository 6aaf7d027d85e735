package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/internal/service"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
	"github.com/noah-isme/sma-presensi-api/pkg/response"
)

type tokenService interface {
	Issue(ctx context.Context, req service.IssueTokenRequest) (*models.CheckInToken, error)
	Invalidate(ctx context.Context, tokenID string) error
}

// TokenHandler exposes check-in token issuance endpoints.
type TokenHandler struct {
	service tokenService
}

// NewTokenHandler constructs the handler.
func NewTokenHandler(service tokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// Issue godoc
// @Summary Issue a check-in token for a schedule period
// @Tags Tokens
// @Accept json
// @Produce json
// @Param payload body service.IssueTokenRequest true "Token request"
// @Success 201 {object} response.Envelope
// @Router /tokens [post]
func (h *TokenHandler) Issue(c *gin.Context) {
	var req service.IssueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid JSON payload"))
		return
	}
	token, err := h.service.Issue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{
		"id":         token.ID,
		"token":      token.Token,
		"expires_at": token.ExpiresAt,
	}, nil)
}

// Invalidate godoc
// @Summary Invalidate a check-in token
// @Tags Tokens
// @Produce json
// @Param id path string true "Token ID"
// @Success 204
// @Router /tokens/{id} [delete]
func (h *TokenHandler) Invalidate(c *gin.Context) {
	if err := h.service.Invalidate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-presensi-api/internal/models"
	"github.com/noah-isme/sma-presensi-api/pkg/config"
	appErrors "github.com/noah-isme/sma-presensi-api/pkg/errors"
)

type tokenRepository interface {
	IssueSuperseding(ctx context.Context, token *models.CheckInToken) (*models.CheckInToken, error)
	FindByString(ctx context.Context, tokenString string) (*models.CheckInToken, error)
	IncrementScanCount(ctx context.Context, id string) (int, error)
	Invalidate(ctx context.Context, id string) error
}

type scheduleCatalog interface {
	FindByID(ctx context.Context, id string) (*models.SchedulePeriod, error)
}

// TokenService issues and validates check-in tokens. Expiry is always
// derived from expires_at at validation time; there is no background sweep.
type TokenService struct {
	tokens    tokenRepository
	schedules scheduleCatalog
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.AttendanceConfig
}

// NewTokenService constructs the service.
func NewTokenService(tokens tokenRepository, schedules scheduleCatalog, validate *validator.Validate, logger *zap.Logger, cfg config.AttendanceConfig) *TokenService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	svc := &TokenService{tokens: tokens, schedules: schedules, validator: validate, logger: logger, cfg: cfg}
	svc.validator.RegisterValidation("attendee_kind", func(fl validator.FieldLevel) bool {
		return models.AttendeeKind(fl.Field().String()).Valid()
	})
	return svc
}

// IssueTokenRequest describes payload for issuing a check-in token.
type IssueTokenRequest struct {
	ScheduleID   string `json:"schedule_id" validate:"required"`
	AttendeeKind string `json:"attendee_kind" validate:"required,attendee_kind"`
	TTLMinutes   int    `json:"ttl_minutes" validate:"omitempty,gt=0"`
}

// Issue creates a new token for a schedule period, superseding any token
// still active for the same (schedule, kind).
func (s *TokenService) Issue(ctx context.Context, req IssueTokenRequest) (*models.CheckInToken, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.schedules.FindByID(ctx, req.ScheduleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	ttl := s.cfg.TokenTTL
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}
	opaque, err := generateTokenString()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}

	now := time.Now().UTC()
	token := &models.CheckInToken{
		ScheduleID:   req.ScheduleID,
		AttendeeKind: models.AttendeeKind(req.AttendeeKind),
		Token:        opaque,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttl),
		Active:       true,
	}
	stored, err := s.tokens.IssueSuperseding(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	s.logger.Info("checkin token issued",
		zap.String("schedule_id", stored.ScheduleID),
		zap.String("attendee_kind", string(stored.AttendeeKind)),
		zap.Time("expires_at", stored.ExpiresAt))
	return stored, nil
}

// Invalidate deactivates a token by id. Idempotent.
func (s *TokenService) Invalidate(ctx context.Context, tokenID string) error {
	if tokenID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "token id required")
	}
	if err := s.tokens.Invalidate(ctx, tokenID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate token")
	}
	return nil
}

// Validate resolves a token string, rejecting expired or superseded tokens,
// and counts the scan. Expiry wins over the stored active flag. Validation
// never writes an attendance record; that is the recorder's job.
func (s *TokenService) Validate(ctx context.Context, tokenString string) (*models.CheckInToken, error) {
	token, err := s.tokens.FindByString(ctx, tokenString)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "token not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load token")
	}
	if token.Expired(time.Now().UTC()) {
		return nil, appErrors.ErrTokenExpired
	}
	if !token.Active {
		return nil, appErrors.ErrTokenInactive
	}
	count, err := s.tokens.IncrementScanCount(ctx, token.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scan")
	}
	token.ScanCount = count
	return token, nil
}

// generateTokenString returns an opaque, unguessable token well above the
// eight character minimum.
func generateTokenString() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

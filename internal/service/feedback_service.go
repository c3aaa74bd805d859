package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-portal-api/internal/gateway"
	"github.com/noah-isme/tms-portal-api/internal/models"
	appErrors "github.com/noah-isme/tms-portal-api/pkg/errors"
)

type feedbackGateway interface {
	SubmitFeedback(ctx context.Context, batchID int64, req gateway.SubmitFeedbackRequest) error
	ListFeedbackForBatch(ctx context.Context, batchID int64) ([]models.Feedback, error)
}

// SubmitFeedbackRequest is the portal payload for batch feedback.
type SubmitFeedbackRequest struct {
	FeedbackText string `json:"feedbackText"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
}

// FeedbackService forwards batch feedback to the upstream API.
type FeedbackService struct {
	gw        feedbackGateway
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(gw feedbackGateway, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{gw: gw, validator: validate, logger: logger}
}

// Submit records feedback for a batch.
func (s *FeedbackService) Submit(ctx context.Context, batchID int64, req SubmitFeedbackRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}
	if err := s.gw.SubmitFeedback(ctx, batchID, gateway.SubmitFeedbackRequest{
		FeedbackText: req.FeedbackText,
		Rating:       req.Rating,
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to submit feedback")
	}
	return nil
}

// ListForBatch returns all feedback entries for a batch.
func (s *FeedbackService) ListForBatch(ctx context.Context, batchID int64) ([]models.Feedback, error) {
	feedback, err := s.gw.ListFeedbackForBatch(ctx, batchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to list feedback")
	}
	if feedback == nil {
		feedback = []models.Feedback{}
	}
	return feedback, nil
}

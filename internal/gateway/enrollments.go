package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

// SubmitFeedbackRequest is the payload for batch feedback.
type SubmitFeedbackRequest struct {
	FeedbackText string `json:"feedbackText,omitempty"`
	Rating       int    `json:"rating"`
}

// ListMine returns the caller's enrollments. The records are denormalized
// and may be empty when the upstream endpoint is missing or the user has
// no enrollments; the two cases are indistinguishable here.
func (c *Client) ListMine(ctx context.Context) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	if err := c.do(ctx, "list_my_enrollments", http.MethodGet, "/enrollments/mine", nil, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// RequestEnrollment asks for enrollment into a batch and returns the
// upstream-assigned record, including its initial status.
func (c *Client) RequestEnrollment(ctx context.Context, batchID int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	path := fmt.Sprintf("/enrollments/request/%d", batchID)
	if err := c.do(ctx, "request_enrollment", http.MethodPost, path, nil, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// SubmitFeedback records feedback for a batch.
func (c *Client) SubmitFeedback(ctx context.Context, batchID int64, req SubmitFeedbackRequest) error {
	return c.do(ctx, "submit_feedback", http.MethodPost, fmt.Sprintf("/feedback/%d", batchID), req, nil)
}

// ListFeedbackForBatch returns all feedback entries for a batch.
func (c *Client) ListFeedbackForBatch(ctx context.Context, batchID int64) ([]models.Feedback, error) {
	var feedback []models.Feedback
	path := fmt.Sprintf("/feedback/batch/%d", batchID)
	if err := c.do(ctx, "list_feedback", http.MethodGet, path, nil, &feedback); err != nil {
		return nil, err
	}
	return feedback, nil
}

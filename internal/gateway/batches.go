package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

// CreateBatchRequest is the payload for batch creation.
type CreateBatchRequest struct {
	BatchName  string `json:"batchName"`
	CalendarID int64  `json:"calendarId"`
}

// ListBatches returns all batches; each may embed its calendar and
// transitively its course.
func (c *Client) ListBatches(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if err := c.do(ctx, "list_batches", http.MethodGet, "/batches", nil, &batches); err != nil {
		return nil, err
	}
	return batches, nil
}

// CreateBatch creates a batch under an existing calendar.
func (c *Client) CreateBatch(ctx context.Context, req CreateBatchRequest) (*models.Batch, error) {
	var batch models.Batch
	if err := c.do(ctx, "create_batch", http.MethodPost, "/batches", req, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// UpdateBatch replaces a batch record.
func (c *Client) UpdateBatch(ctx context.Context, batchID int64, batch models.Batch) error {
	return c.do(ctx, "update_batch", http.MethodPut, fmt.Sprintf("/batches/%d", batchID), batch, nil)
}

// DeleteBatch removes a batch.
func (c *Client) DeleteBatch(ctx context.Context, batchID int64) error {
	return c.do(ctx, "delete_batch", http.MethodDelete, fmt.Sprintf("/batches/%d", batchID), nil, nil)
}

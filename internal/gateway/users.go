package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/tms-portal-api/internal/models"
)

// CreateUserRequest is the payload for user creation. The password is
// forwarded verbatim; the upstream API owns credential storage.
type CreateUserRequest struct {
	Username  string          `json:"username"`
	Password  string          `json:"password"`
	Email     string          `json:"email,omitempty"`
	FirstName string          `json:"firstName,omitempty"`
	LastName  string          `json:"lastName,omitempty"`
	RoleName  models.UserRole `json:"roleName"`
	ManagerID *int64          `json:"managerId,omitempty"`
}

// ListManagers returns the manager roster with nested employee summaries.
func (c *Client) ListManagers(ctx context.Context) ([]models.Manager, error) {
	var managers []models.Manager
	if err := c.do(ctx, "list_managers", http.MethodGet, "/users/managers", nil, &managers); err != nil {
		return nil, err
	}
	return managers, nil
}

// CreateUser registers a user with the given role.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, "create_user", http.MethodPost, "/users/create", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user by id.
func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.do(ctx, "delete_user", http.MethodDelete, fmt.Sprintf("/users/%d", userID), nil, nil)
}

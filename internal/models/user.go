package models

// UserRole represents the portal roles understood by the upstream API.
type UserRole string

const (
	RoleAdministrator UserRole = "Administrator"
	RoleManager       UserRole = "Manager"
	RoleEmployee      UserRole = "Employee"
)

// User is an upstream user record. Passwords are write-only and never
// round-trip back to the portal.
type User struct {
	UserID    int64    `json:"userId"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	RoleName  UserRole `json:"roleName"`
	ManagerID *int64   `json:"managerId,omitempty"`
}

// EmployeeSummary is the nested employee shape embedded in manager records.
type EmployeeSummary struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// Manager is a manager roster entry with its owned employees.
type Manager struct {
	UserID    int64             `json:"userId"`
	Username  string            `json:"username"`
	Email     string            `json:"email,omitempty"`
	FirstName string            `json:"firstName,omitempty"`
	LastName  string            `json:"lastName,omitempty"`
	Employees []EmployeeSummary `json:"employees,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

package request

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest creates a staff account
type RegisterUserRequest struct {
	Username string   `json:"username" binding:"required,min=3,max=100"`
	FullName string   `json:"full_name" binding:"max=255"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles"`
}

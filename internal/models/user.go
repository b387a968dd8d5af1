package models

// Property names of a user resource
const (
	PropUsername     = "username"
	PropEmail        = "email"
	PropFirstName    = "firstname"
	PropLastName     = "lastname"
	PropMobile       = "mobile"
	PropPasswordHash = "passwordHash"
)

// MaxEmailLength is the longest email the user store indexes
const MaxEmailLength = 255

// Role describes the tier a user record was found under
type Role struct {
	Type  string `json:"userType"`
	Level string `json:"userLevel"`
}

var (
	RoleUser  = Role{Type: "user", Level: "level1"}
	RoleAdmin = Role{Type: "admin", Level: "level2"}
)

// LoginResponse is returned on successful authentication
type LoginResponse struct {
	UserType  string `json:"userType"`
	UserLevel string `json:"userLevel"`
	UserID    string `json:"userId"`
}

// RegisterRequest represents a registration payload.
// Optional fields are nil when absent from the request.
type RegisterRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
	Password  *string `json:"password"`
	Mobile    *string `json:"mobile"`
}

// MessageResponse is a generic success payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
}

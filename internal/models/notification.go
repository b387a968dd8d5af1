package models

// WelcomeEmailPayload is the task payload sent to the notification worker after a registration
type WelcomeEmailPayload struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstname,omitempty"`
}

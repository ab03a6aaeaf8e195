package models

// User is the authenticated caller as resolved from the session.
type User struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

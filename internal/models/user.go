package models

// RegisterRequest is the JSON body for POST /api/users/register.
type RegisterRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Goal     *float64 `json:"goal,omitempty"`
}

// LoginRequest is the JSON body for POST /api/users/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GoalRequest is the JSON body for PUT /api/users/goal.
type GoalRequest struct {
	Goal *float64 `json:"goal"`
}

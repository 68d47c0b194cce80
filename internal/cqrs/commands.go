package cqrs

import "github.com/eaglebank/user-crud/internal/validation"

// CreateUserCommand carries a request body that already passed shape validation.
type CreateUserCommand struct {
	Request validation.CreateUserRequest
}

// UpdateUserCommand carries the optional fields of a partial update.
type UpdateUserCommand struct {
	UserID  string
	Request validation.UpdateUserRequest
}

type DeleteUserCommand struct {
	UserID string
}

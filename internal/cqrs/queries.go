package cqrs

// GetUserQuery fetches a single user by ID.
type GetUserQuery struct {
	UserID string
}

// ListUsersQuery fetches one page of users. Page and Limit are raw query
// parameters; empty means the default.
type ListUsersQuery struct {
	Page  string
	Limit string
}

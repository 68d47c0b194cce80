package models

import "time"

// UserView is the response projection of a user.
// It has no password field at all, so no form of the secret can be serialised.
type UserView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Gender    string    `json:"gender"`
	CreatedAt time.Time `json:"createdTimestamp"`
	UpdatedAt time.Time `json:"updatedTimestamp"`
}

// View projects u onto its public representation.
func (u *User) View() *UserView {
	return &UserView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Gender:    u.Gender,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Views projects a slice of users, preserving order.
func Views(users []User) []*UserView {
	views := make([]*UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views
}

package users

import "time"

// User is the identity row persisted on login. The id is the prefixed
// provider subject (for example "google:123") and keys all ownership.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

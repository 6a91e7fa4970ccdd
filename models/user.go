package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Nickname  string    `json:"nickname"`
	IsBot     bool      `json:"is_bot"`
	Online    bool      `json:"online"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

type Achievement struct {
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	GrantedAt time.Time `json:"granted_at"`
}

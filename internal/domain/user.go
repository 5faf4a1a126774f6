package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	CustomerType Tier      `json:"customer_type"`
	CreatedAt    time.Time `json:"created_at"`
}

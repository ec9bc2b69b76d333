package models

import "time"

// Activity is one journal row describing an admin command and its outcome.
type Activity struct {
	ID        int64     `json:"id"`
	Command   string    `json:"command"`
	TradeID   string    `json:"trade_id,omitempty"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

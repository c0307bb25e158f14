package domain

import "time"

type User struct {
	UserID    string    `json:"id" dynamodbav:"user_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	Email     string    `json:"email" dynamodbav:"email"`
	Avatar    *string   `json:"avatar" dynamodbav:"avatar"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Identity is what a verified token resolves to.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"name"`
}

package models

import (
	"time"
)

// User is a registered identity. Credentials are handled outside this service;
// only the profile used to resolve actors and invitees is stored here.
type User struct {
	ID         string    `json:"id" bson:"_id"`
	Email      string    `json:"email" bson:"email"`
	EmailLower string    `json:"-" bson:"emailLower"`
	Name       string    `json:"name" bson:"name"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Actor is the identity a request acts as.
type Actor struct {
	UserID     string `json:"id"`
	Email      string `json:"email"`
	EmailLower string `json:"emailLower"`
	Name       string `json:"name,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Result  any    `json:"result,omitempty"`
}

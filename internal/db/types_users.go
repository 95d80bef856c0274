package db

import (
	"time"
)

// Role constants for users
const (
	RoleAdmin         = "admin"
	RoleHiringManager = "hiring_manager"
	RoleHR            = "hr"
	RoleCandidate     = "candidate"
)

// User represents an identity with a single role
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never serialize to JSON
	Role         string    `json:"role"`
	Profile      JSONMap   `json:"profile"` // JSONB free-form profile
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Candidate holds the structured career data for a user with role=candidate
type Candidate struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	Education      JSONArray   `json:"education"`       // entries may be strings or objects with "degree"
	Skills         StringArray `json:"skills"`
	WorkExperience JSONArray   `json:"work_experience"`
	Certifications StringArray `json:"certifications"`
	Languages      StringArray `json:"languages"`
	Documents      JSONArray   `json:"documents"`
	Location       string      `json:"location,omitempty"`
	CVUrl          *string     `json:"cv_url,omitempty"`
	CVText         *string     `json:"-"` // Don't serialize (large)
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleHiringManager, RoleHR, RoleCandidate:
		return true
	}
	return false
}

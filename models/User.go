package models

import "gorm.io/gorm"

// User represents an auditor account that can authenticate with the service.
// Accounts are seeded out of band; there is no self-service signup.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
}

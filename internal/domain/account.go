package domain

import "time"

// Account is an authenticatable tenant (business client) or administrative user.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	// Role is the stored role, empty when never assigned.
	Role        Role
	ServiceType string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy that shares no memory with the receiver.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

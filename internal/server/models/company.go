package models

import "time"

// Company is an accounting entity owned by exactly one user.
type Company struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Name             string    `json:"name"`
	RegistrationCode string    `json:"registrationCode"`
	VATNumber        string    `json:"vatNumber"`
	Address          string    `json:"address"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

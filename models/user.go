package models

// User is the account document stored under the user's email address.
// The email is the primary key and cannot be changed after signup.
type User struct {
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Street         string `json:"street"`
	Zip            string `json:"zip"`
	City           string `json:"city"`
	HashedPassword string `json:"hashedPassword,omitempty"`
	TOSAgreement   bool   `json:"tosAgreement"`
}

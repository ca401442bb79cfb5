package models

// User is identity metadata for a registered user.
//
// The lifecycle engine never authorizes by User fields; authorization compares
// raw user IDs. Users are only looked up to decorate responses with an email
// and to resolve AddMemberByEmail.
type User struct {
	// ID is the unique identifier for the user.
	ID string

	// Email is the user's email address (unique).
	Email string

	// DisplayName is the user's display name.
	DisplayName string

	// CreatedAt is the Unix timestamp when the user account was created.
	CreatedAt int64
}

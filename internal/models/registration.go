package models

// RegistrationToken binds a user to the push token of their installed app.
type RegistrationToken struct {
	UserEmail string `json:"user_email"`
	Token     string `json:"-"`
}

// Identity is what the identity provider vouches for.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

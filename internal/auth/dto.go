package auth

import "time"

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d LoginDTO) Validate() error {
	if d.Username == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

type LoginResponseV1 struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

type RegisterResponseV1 struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

func (s *Session) ToV1() LoginResponseV1 {
	return LoginResponseV1{
		Message:   "Login successful",
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      s.User,
	}
}

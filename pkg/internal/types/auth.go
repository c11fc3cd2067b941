package types

// SignupRequest creates an account.
type SignupRequest struct {
	FullName        string `json:"fullName"        rule:"required,max=255"`
	Username        string `json:"username"        rule:"required,min=3,max=64,alphanum"`
	Password        string `json:"password"        rule:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" rule:"required,eqfield=Password"`
	Gender          string `json:"gender"          rule:"required,oneof=male female"`
}

// LoginRequest opens a session.
type LoginRequest struct {
	Username string `json:"username" rule:"required"`
	Password string `json:"password" rule:"required"`
}

package dto

// PasswordForm holds the three fields of the change password form.
type PasswordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PasswordView is what the password screen renders. Field values are never
// echoed back; Filled tells whether the form still holds input.
type PasswordView struct {
	Submitting bool   `json:"submitting"`
	Success    string `json:"success,omitempty"`
	Error      string `json:"error,omitempty"`
	Filled     bool   `json:"filled"`
	MinLength  int    `json:"min_length"`
}

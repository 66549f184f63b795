package account

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=32"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Address     string `json:"address" validate:"omitempty,max=500"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the profile update payload. Omitted fields are left
// unchanged.
type UpdateProfileRequest struct {
	Username    *string `json:"username,omitempty" validate:"omitnil,min=1,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitnil,max=32"`
	Email       *string `json:"email,omitempty" validate:"omitnil,email,max=254"`
	Address     *string `json:"address,omitempty" validate:"omitnil,max=500"`
}

// UpdateAddressRequest is the address update payload.
type UpdateAddressRequest struct {
	Address string `json:"address" validate:"required,max=500"`
}

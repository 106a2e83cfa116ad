package user

type CreateUserRequest struct {
	FullName string `json:"full_name" binding:"required,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"omitempty,oneof=USER REVIEWER ADMIN"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name" binding:"required,max=120"`
	Role     string `json:"role" binding:"required,oneof=USER REVIEWER ADMIN"`
	IsActive *bool  `json:"is_active" binding:"required"`
}

type UserResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

func mapToResponse(u User) UserResponse {
	return UserResponse{
		ID:       u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}

func mapToListResponse(users []User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, mapToResponse(u))
	}
	return resp
}

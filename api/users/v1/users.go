// Package usersv1 defines the users.v1.UserService gRPC contract.
package usersv1

// GetUserRequest selects a user by ID
type GetUserRequest struct {
	Id uint64 `json:"id"`
}

// ListUsersRequest has no fields
type ListUsersRequest struct{}

// CreateUserRequest carries the attributes of a new user
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int32  `json:"age"`
}

// UpdateUserRequest replaces name, email and age of user Id
type UpdateUserRequest struct {
	Id    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   int32  `json:"age"`
}

// DeleteUserRequest selects the user to delete
type DeleteUserRequest struct {
	Id uint64 `json:"id"`
}

// DeleteUserResponse is empty on success
type DeleteUserResponse struct{}

// UserResponse is a single user; CreatedAt is RFC 3339
type UserResponse struct {
	Id        uint64 `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Age       int32  `json:"age"`
	CreatedAt string `json:"createdAt"`
}

// ListUsersResponse holds every user
type ListUsersResponse struct {
	Users []*UserResponse `json:"users"`
}

func (r *GetUserRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

func (r *DeleteUserRequest) GetId() uint64 {
	if r == nil {
		return 0
	}
	return r.Id
}

package infrastructure

import (
	"context"
	"time"

	usersv1 "user-service/api/users/v1"
	"user-service/internal/users/domain"
	"user-service/internal/users/ports"
)

// GRPCServer implements the gRPC UserServiceServer
type GRPCServer struct {
	usersv1.UnimplementedUserServiceServer
	service ports.UserService
}

var _ usersv1.UserServiceServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(service ports.UserService) *GRPCServer {
	return &GRPCServer{service: service}
}

// GetUser implements UserServiceServer.GetUser
func (s *GRPCServer) GetUser(ctx context.Context, req *usersv1.GetUserRequest) (*usersv1.UserResponse, error) {
	view, err := s.service.GetUser(ctx, uint(req.GetId()))
	if err != nil {
		return nil, err
	}
	return toResponse(*view), nil
}

// ListUsers implements UserServiceServer.ListUsers
func (s *GRPCServer) ListUsers(ctx context.Context, _ *usersv1.ListUsersRequest) (*usersv1.ListUsersResponse, error) {
	views, err := s.service.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	resp := &usersv1.ListUsersResponse{Users: make([]*usersv1.UserResponse, 0, len(views))}
	for _, v := range views {
		resp.Users = append(resp.Users, toResponse(v))
	}
	return resp, nil
}

// CreateUser implements UserServiceServer.CreateUser
func (s *GRPCServer) CreateUser(ctx context.Context, req *usersv1.CreateUserRequest) (*usersv1.UserResponse, error) {
	view, err := s.service.CreateUser(ctx, domain.UserInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   int(req.Age),
	})
	if err != nil {
		return nil, err
	}
	return toResponse(*view), nil
}

// UpdateUser implements UserServiceServer.UpdateUser
func (s *GRPCServer) UpdateUser(ctx context.Context, req *usersv1.UpdateUserRequest) (*usersv1.UserResponse, error) {
	view, err := s.service.UpdateUser(ctx, uint(req.Id), domain.UserInput{
		Name:  req.Name,
		Email: req.Email,
		Age:   int(req.Age),
	})
	if err != nil {
		return nil, err
	}
	return toResponse(*view), nil
}

// DeleteUser implements UserServiceServer.DeleteUser
func (s *GRPCServer) DeleteUser(ctx context.Context, req *usersv1.DeleteUserRequest) (*usersv1.DeleteUserResponse, error) {
	if err := s.service.DeleteUser(ctx, uint(req.GetId())); err != nil {
		return nil, err
	}
	return &usersv1.DeleteUserResponse{}, nil
}

func toResponse(v domain.UserView) *usersv1.UserResponse {
	return &usersv1.UserResponse{
		Id:        uint64(v.ID),
		Name:      v.Name,
		Email:     v.Email,
		Age:       int32(v.Age),
		CreatedAt: v.CreatedAt.Format(time.RFC3339Nano),
	}
}

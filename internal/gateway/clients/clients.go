package clients

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	usersv1 "user-service/api/users/v1"
	"user-service/pkg/breaker"
	"user-service/pkg/config"
	grpcpkg "user-service/pkg/grpc"
	"user-service/pkg/logger"
	"user-service/pkg/tls"
)

// FallbackMessage is returned while the users backend is considered down
const FallbackMessage = "User Service is unavailable. Please try again later."

// Clients holds the gRPC clients of the gateway
type Clients struct {
	Users usersv1.UserServiceClient

	usersConn *grpc.ClientConn
}

// NewClients dials the users service. Calls go through a circuit breaker when enabled.
func NewClients(cfg *config.Config, log *logger.Logger) (*Clients, error) {
	usersConn, err := createConnection(cfg, cfg.UsersGRPCAddr)
	if err != nil {
		return nil, err
	}

	var users usersv1.UserServiceClient = usersv1.NewUserServiceClient(usersConn)
	if cfg.BreakerEnabled {
		users = NewGuardedUsersClient(users, breaker.New(breaker.Settings{
			Name:             "gateway-users",
			FailureThreshold: cfg.BreakerFailureThreshold,
			OpenTimeout:      cfg.BreakerOpenTimeout,
			FallbackMessage:  FallbackMessage,
		}, log))
	}

	return &Clients{
		Users:     users,
		usersConn: usersConn,
	}, nil
}

// Close closes all gRPC connections
func (c *Clients) Close() error {
	if c.usersConn != nil {
		return c.usersConn.Close()
	}
	return nil
}

func createConnection(cfg *config.Config, addr string) (*grpc.ClientConn, error) {
	var opts []grpc.DialOption

	opts = append(opts, grpc.WithUnaryInterceptor(grpcpkg.UnaryClientInterceptor(cfg.GRPCTimeout)))

	if cfg.GRPCMTLSEnabled {
		creds, err := tls.GRPCClientCredentials(tls.Files{
			CertFile: cfg.GRPCClientCert,
			KeyFile:  cfg.GRPCClientKey,
			CAFile:   cfg.TLSCAFile,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.WithTransportCredentials(creds))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	return grpc.Dial(addr, opts...)
}

// GuardedUsersClient routes every users call through a circuit breaker
type GuardedUsersClient struct {
	next usersv1.UserServiceClient
	cb   *breaker.Breaker
}

var _ usersv1.UserServiceClient = (*GuardedUsersClient)(nil)

// NewGuardedUsersClient wraps next with cb
func NewGuardedUsersClient(next usersv1.UserServiceClient, cb *breaker.Breaker) *GuardedUsersClient {
	return &GuardedUsersClient{next: next, cb: cb}
}

func (g *GuardedUsersClient) GetUser(ctx context.Context, in *usersv1.GetUserRequest, opts ...grpc.CallOption) (*usersv1.UserResponse, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.GetUser(ctx, in, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*usersv1.UserResponse), nil
}

func (g *GuardedUsersClient) ListUsers(ctx context.Context, in *usersv1.ListUsersRequest, opts ...grpc.CallOption) (*usersv1.ListUsersResponse, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.ListUsers(ctx, in, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*usersv1.ListUsersResponse), nil
}

func (g *GuardedUsersClient) CreateUser(ctx context.Context, in *usersv1.CreateUserRequest, opts ...grpc.CallOption) (*usersv1.UserResponse, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.CreateUser(ctx, in, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*usersv1.UserResponse), nil
}

func (g *GuardedUsersClient) UpdateUser(ctx context.Context, in *usersv1.UpdateUserRequest, opts ...grpc.CallOption) (*usersv1.UserResponse, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.UpdateUser(ctx, in, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*usersv1.UserResponse), nil
}

func (g *GuardedUsersClient) DeleteUser(ctx context.Context, in *usersv1.DeleteUserRequest, opts ...grpc.CallOption) (*usersv1.DeleteUserResponse, error) {
	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.next.DeleteUser(ctx, in, opts...)
	})
	if err != nil {
		return nil, err
	}
	return res.(*usersv1.DeleteUserResponse), nil
}

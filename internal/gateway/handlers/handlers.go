package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	usersv1 "user-service/api/users/v1"
	"user-service/internal/gateway/clients"
	"user-service/pkg/errors"
	"user-service/pkg/middleware"
)

// Handler handles all gateway HTTP requests
type Handler struct {
	usersClient usersv1.UserServiceClient
}

// NewHandler creates a new gateway handler
func NewHandler(usersClient usersv1.UserServiceClient) *Handler {
	return &Handler{usersClient: usersClient}
}

// RegisterRoutes registers all gateway routes
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	users := r.Group("/api/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	r.GET("/fallback/user-service", h.UserServiceFallback)
}

// =============================================================================
// Request/Response DTOs
// =============================================================================

// UserRequest represents the request body for creating or updating a user
type UserRequest struct {
	Name  string `json:"name" example:"Ann Lee"`
	Email string `json:"email" example:"ann@example.com"`
	Age   int32  `json:"age" example:"30"`
}

// UserResponse represents a user in responses
type UserResponse struct {
	ID        uint64 `json:"id" example:"1"`
	Name      string `json:"name" example:"Ann Lee"`
	Email     string `json:"email" example:"ann@example.com"`
	Age       int32  `json:"age" example:"30"`
	CreatedAt string `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}

// SuccessResponse is the standard success response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	TraceID string      `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorBody contains error details
type ErrorBody struct {
	Code    string      `json:"code" example:"VALIDATION_ERROR"`
	Message string      `json:"message" example:"request validation failed"`
	Details interface{} `json:"details,omitempty"`
}

func toUserResponse(resp *usersv1.UserResponse) UserResponse {
	return UserResponse{
		ID:        resp.Id,
		Name:      resp.Name,
		Email:     resp.Email,
		Age:       resp.Age,
		CreatedAt: resp.CreatedAt,
	}
}

func (h *Handler) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:    data,
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

// =============================================================================
// Users Handlers
// =============================================================================

// ListUsers lists all users
// @Summary List users
// @Description Retrieve every user in insertion order
// @Tags users
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]UserResponse} "Users retrieved successfully"
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	resp, err := h.usersClient.ListUsers(c.Request.Context(), &usersv1.ListUsersRequest{})
	if err != nil {
		c.Error(err)
		return
	}

	users := make([]UserResponse, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, toUserResponse(u))
	}
	h.ok(c, http.StatusOK, users)
}

// CreateUser creates a new user
// @Summary Create a new user
// @Description Create a new user with name, email and age
// @Tags users
// @Accept json
// @Produce json
// @Param request body UserRequest true "User creation request"
// @Success 201 {object} SuccessResponse{data=UserResponse} "User created successfully"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Email already exists"
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Router /api/users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	resp, err := h.usersClient.CreateUser(c.Request.Context(), &usersv1.CreateUserRequest{
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.Header("Location", "/api/users/"+strconv.FormatUint(resp.Id, 10))
	h.ok(c, http.StatusCreated, toUserResponse(resp))
}

// GetUser retrieves a user by ID
// @Summary Get a user by ID
// @Description Retrieve user details by their ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} SuccessResponse{data=UserResponse} "User retrieved successfully"
// @Failure 400 {object} ErrorResponse "Invalid user ID"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Router /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.usersClient.GetUser(c.Request.Context(), &usersv1.GetUserRequest{Id: id})
	if err != nil {
		c.Error(err)
		return
	}

	h.ok(c, http.StatusOK, toUserResponse(resp))
}

// UpdateUser replaces a user's attributes
// @Summary Update a user
// @Description Replace name, email and age of an existing user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UserRequest true "User update request"
// @Success 200 {object} SuccessResponse{data=UserResponse} "User updated successfully"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 409 {object} ErrorResponse "Email already exists"
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Router /api/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	resp, err := h.usersClient.UpdateUser(c.Request.Context(), &usersv1.UpdateUserRequest{
		Id:    id,
		Name:  req.Name,
		Email: req.Email,
		Age:   req.Age,
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.ok(c, http.StatusOK, toUserResponse(resp))
}

// DeleteUser deletes a user
// @Summary Delete a user
// @Description Delete a user by ID
// @Tags users
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 400 {object} ErrorResponse "Invalid user ID"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Router /api/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if _, err := h.usersClient.DeleteUser(c.Request.Context(), &usersv1.DeleteUserRequest{Id: id}); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UserServiceFallback answers for the users backend while it is down
// @Summary User service fallback
// @Description Fixed answer served while the user service is unavailable
// @Tags fallback
// @Produce json
// @Failure 503 {object} ErrorResponse "User service unavailable"
// @Router /fallback/user-service [get]
func (h *Handler) UserServiceFallback(c *gin.Context) {
	c.Error(errors.NewUnavailable(clients.FallbackMessage, nil))
}

func parseID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidation("invalid user id", []errors.FieldError{
			{Field: "id", Message: "must be a non-negative integer"},
		}))
		return 0, false
	}
	return id, true
}

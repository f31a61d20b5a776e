package infrastructure

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"user-service/internal/users/domain"
	"user-service/internal/users/ports"
	"user-service/pkg/errors"
)

// Collection paths the REST API is served on
var collectionPaths = []string{"/users", "/api/users"}

// HTTPHandler handles HTTP requests for users
type HTTPHandler struct {
	service ports.UserService
	hateoas bool
}

// NewHTTPHandler creates a new HTTP handler. With hateoas set, responses carry _links.
func NewHTTPHandler(service ports.UserService, hateoas bool) *HTTPHandler {
	return &HTTPHandler{service: service, hateoas: hateoas}
}

// RegisterRoutes registers the user routes under every collection path
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	for _, path := range collectionPaths {
		users := r.Group(path)
		{
			users.GET("", h.ListUsers)
			users.POST("", h.CreateUser)
			users.GET("/:id", h.GetUser)
			users.PUT("/:id", h.UpdateUser)
			users.DELETE("/:id", h.DeleteUser)
		}
	}
}

// UserRequest is the request body for creating or updating a user
type UserRequest struct {
	Name  string `json:"name" example:"Ann Lee"`
	Email string `json:"email" example:"ann@example.com"`
	Age   int    `json:"age" example:"30"`
}

func (r UserRequest) toInput() domain.UserInput {
	return domain.UserInput{Name: r.Name, Email: r.Email, Age: r.Age}
}

// ListUsers handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} domain.UserView
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/users [get]
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	views, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	if h.hateoas {
		c.JSON(http.StatusOK, linksFor(c).Collection(views))
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetUser handles GET /users/:id
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} domain.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/{id} [get]
func (h *HTTPHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if h.hateoas {
		c.JSON(http.StatusOK, linksFor(c).Detail(*view))
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateUser handles POST /users
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body UserRequest true "User attributes"
// @Success 201 {object} domain.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/users [post]
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req UserRequest
	if !bindBody(c, &req) {
		return
	}

	view, err := h.service.CreateUser(c.Request.Context(), req.toInput())
	if err != nil {
		c.Error(err)
		return
	}

	links := linksFor(c)
	c.Header("Location", links.Location(view.ID))
	if h.hateoas {
		c.JSON(http.StatusCreated, links.Created(*view))
		return
	}
	c.JSON(http.StatusCreated, view)
}

// UpdateUser handles PUT /users/:id
// @Summary Replace a user's attributes
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UserRequest true "User attributes"
// @Success 200 {object} domain.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/users/{id} [put]
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UserRequest
	if !bindBody(c, &req) {
		return
	}

	view, err := h.service.UpdateUser(c.Request.Context(), id, req.toInput())
	if err != nil {
		c.Error(err)
		return
	}

	if h.hateoas {
		c.JSON(http.StatusOK, linksFor(c).Updated(*view))
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteUser handles DELETE /users/:id
// @Summary Delete a user
// @Tags users
// @Param id path int true "User ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/users/{id} [delete]
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewValidation("invalid user id", []errors.FieldError{
			{Field: "id", Message: "must be a non-negative integer"},
		}))
		return 0, false
	}
	return uint(id), true
}

func bindBody(c *gin.Context, req *UserRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return false
	}
	return true
}

// linksFor roots links at the collection path the route was registered under
func linksFor(c *gin.Context) LinkBuilder {
	return NewLinkBuilder(strings.TrimSuffix(c.FullPath(), "/:id"))
}

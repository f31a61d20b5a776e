package infrastructure

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"user-service/internal/users/domain"
	"user-service/pkg/errors"
	"user-service/pkg/logger"
	"user-service/pkg/middleware"
)

var ann = domain.UserView{
	ID:        1,
	Name:      "Ann",
	Email:     "ann@x.com",
	Age:       30,
	CreatedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
}

func newTestRouter(t *testing.T, hateoas bool) (*gin.Engine, *MockUserService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &MockUserService{}
	t.Cleanup(func() { svc.AssertExpectations(t) })

	r := gin.New()
	middleware.Default(r, logger.NewNop())
	NewHTTPHandler(svc, hateoas).RegisterRoutes(r)
	return r, svc
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorResponse {
	t.Helper()
	var body errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHTTP_CreateUser(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("CreateUser", mock.Anything, domain.UserInput{Name: "Ann", Email: "ann@x.com", Age: 30}).
		Return(&ann, nil)

	w := do(r, http.MethodPost, "/api/users", `{"name":"Ann","email":"ann@x.com","age":30}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "/api/users/1", w.Header().Get("Location"))

	var got domain.UserView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, ann, got)
}

func TestHTTP_CreateUser_ValidationError(t *testing.T) {
	r, svc := newTestRouter(t, false)
	fields := []errors.FieldError{
		{Field: "name", Message: "must be between 2 and 50 characters"},
		{Field: "age", Message: "must be at least 1"},
	}
	svc.On("CreateUser", mock.Anything, mock.Anything).Return(nil, domain.NewValidationFailed(fields))

	w := do(r, http.MethodPost, "/users", `{"name":"A","email":"a@x.com","age":0}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, errors.CodeValidation, body.Error.Code)
	assert.Len(t, body.Error.Details, 2)
}

func TestHTTP_CreateUser_MalformedBody(t *testing.T) {
	r, _ := newTestRouter(t, false)

	w := do(r, http.MethodPost, "/users", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeValidation, decodeError(t, w).Error.Code)
}

func TestHTTP_CreateUser_Conflict(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("CreateUser", mock.Anything, mock.Anything).Return(nil, domain.NewEmailAlreadyExists("ann@x.com"))

	w := do(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com","age":30}`)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, errors.CodeConflict, body.Error.Code)
	assert.Equal(t, map[string]interface{}{"email": "ann@x.com"}, body.Error.Details)
}

func TestHTTP_GetUser(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("GetUser", mock.Anything, uint(1)).Return(&ann, nil)

	w := do(r, http.MethodGet, "/users/1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"id":1,"name":"Ann","email":"ann@x.com","age":30,"createdAt":"2024-01-15T10:30:00Z"}`,
		w.Body.String())
}

func TestHTTP_GetUser_NotFound(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("GetUser", mock.Anything, uint(42)).Return(nil, domain.NewUserNotFound(42))

	w := do(r, http.MethodGet, "/api/users/42", "")

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decodeError(t, w).Error.Code)
}

func TestHTTP_InvalidID(t *testing.T) {
	r, _ := newTestRouter(t, false)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := do(r, method, "/users/abc", `{"name":"Ann","email":"ann@x.com","age":30}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, method)
	}
}

func TestHTTP_ListUsers_Empty(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("ListUsers", mock.Anything).Return([]domain.UserView{}, nil)

	w := do(r, http.MethodGet, "/users", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHTTP_UpdateUser(t *testing.T) {
	r, svc := newTestRouter(t, false)
	updated := ann
	updated.Age = 31
	svc.On("UpdateUser", mock.Anything, uint(1), domain.UserInput{Name: "Ann", Email: "ann@x.com", Age: 31}).
		Return(&updated, nil)

	w := do(r, http.MethodPut, "/users/1", `{"name":"Ann","email":"ann@x.com","age":31}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"age":31`)
}

func TestHTTP_DeleteUser(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("DeleteUser", mock.Anything, uint(1)).Return(nil)

	w := do(r, http.MethodDelete, "/users/1", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHTTP_InternalErrorIsOpaque(t *testing.T) {
	r, svc := newTestRouter(t, false)
	svc.On("ListUsers", mock.Anything).Return(nil, errors.NewInternal("query users", assert.AnError))

	w := do(r, http.MethodGet, "/users", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func TestHTTP_Hateoas_Detail(t *testing.T) {
	r, svc := newTestRouter(t, true)
	svc.On("GetUser", mock.Anything, uint(1)).Return(&ann, nil)

	w := do(r, http.MethodGet, "/api/users/1", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got UserResource
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, ann, got.UserView)
	assert.Equal(t, Links{
		RelSelf:       {Href: "/api/users/1"},
		RelAllUsers:   {Href: "/api/users"},
		RelUpdateUser: {Href: "/api/users/1"},
		RelDeleteUser: {Href: "/api/users/1"},
	}, got.Links)
}

func TestHTTP_Hateoas_Collection(t *testing.T) {
	r, svc := newTestRouter(t, true)
	svc.On("ListUsers", mock.Anything).Return([]domain.UserView{ann}, nil)

	w := do(r, http.MethodGet, "/users", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got UserCollection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Embedded.Users, 1)
	assert.Equal(t, "/users/1", got.Embedded.Users[0].Links[RelSelf].Href)
	assert.Equal(t, "/users", got.Links[RelCreateUser].Href)
}

func TestHTTP_Hateoas_Created(t *testing.T) {
	r, svc := newTestRouter(t, true)
	svc.On("CreateUser", mock.Anything, mock.Anything).Return(&ann, nil)

	w := do(r, http.MethodPost, "/users", `{"name":"Ann","email":"ann@x.com","age":30}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var got UserResource
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got.Links, 2)
	assert.Equal(t, "/users/1", got.Links[RelSelf].Href)
}

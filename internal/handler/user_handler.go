package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/eaglebank/user-crud/internal/cqrs"
	"github.com/eaglebank/user-crud/internal/middleware"
	"github.com/eaglebank/user-crud/internal/models"
	"github.com/eaglebank/user-crud/internal/validation"
	"github.com/gin-gonic/gin"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	CreateUser(context.Context, cqrs.CreateUserCommand) (*models.UserView, error)
	UpdateUser(context.Context, cqrs.UpdateUserCommand) (*models.UserView, error)
	DeleteUser(context.Context, cqrs.DeleteUserCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
	ListUsers(context.Context, cqrs.ListUsersQuery) ([]*models.UserView, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
}

func NewUserHandler(commands UserCommander, queries UserQuerier) *UserHandler {
	return &UserHandler{commands: commands, queries: queries}
}

// RegisterRoutes mounts the user endpoints on rg.
func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListUsers)
	rg.GET("/:id", h.GetUser)
	rg.POST("", h.CreateUser)
	rg.PUT("/:id", h.UpdateUser)
	rg.DELETE("/:id", h.DeleteUser)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	views, err := h.queries.ListUsers(c.Request.Context(), cqrs.ListUsersQuery{
		Page:  c.Query("page"),
		Limit: c.Query("limit"),
	})
	if err != nil {
		respondWithFailure(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{UserID: c.Param("id")})
	if err != nil {
		respondWithFailure(c, err, "get user")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req validation.CreateUserRequest
	if issues := bindJSON(c, &req); issues != nil {
		middleware.RespondWithIssues(c, issues)
		return
	}

	view, err := h.commands.CreateUser(c.Request.Context(), cqrs.CreateUserCommand{Request: req})
	if err != nil {
		respondWithFailure(c, err, "create user")
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req validation.UpdateUserRequest
	if issues := bindJSON(c, &req); issues != nil {
		middleware.RespondWithIssues(c, issues)
		return
	}

	view, err := h.commands.UpdateUser(c.Request.Context(), cqrs.UpdateUserCommand{
		UserID:  c.Param("id"),
		Request: req,
	})
	if err != nil {
		respondWithFailure(c, err, "update user")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	err := h.commands.DeleteUser(c.Request.Context(), cqrs.DeleteUserCommand{UserID: c.Param("id")})
	if err != nil {
		respondWithFailure(c, err, "delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

// bindJSON decodes the request body into obj. An empty body decodes to the
// zero value so the shape validation reports the missing fields.
func bindJSON(c *gin.Context, obj any) validation.Issues {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return validation.DecodeError(err)
	}
	return nil
}

// respondWithFailure maps a service error to a response: validation issues
// become 400, anything else is a store failure and becomes 500.
func respondWithFailure(c *gin.Context, err error, action string) {
	var issues validation.Issues
	if errors.As(err, &issues) {
		middleware.RespondWithIssues(c, issues)
		return
	}
	middleware.Logger(c).WithError(err).Errorf("Failed to %s", action)
	middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to "+action)
}

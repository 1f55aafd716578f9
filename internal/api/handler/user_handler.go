package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cugino/restaurant-auth/internal/core/domain"
	"github.com/cugino/restaurant-auth/internal/core/ports"
)

// UserHandler serves the /users management endpoints. Role and ownership
// gates are applied by middleware at route registration.
type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// List returns all users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   userResponse
// @Failure      403  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponses(users))
}

// Get returns one user by id.
//
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.users.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// Create adds a user through the administrative path. The password field
// accepts either a plaintext value or an existing bcrypt hash; plaintext
// is upgraded transparently.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.NewValidationError(err.Error())
	}

	user, err := h.users.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Name:            req.Name,
		Password:        req.Password,
		Role:            domain.Role(req.Role),
		EstablishmentID: req.EstablishmentID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newUserResponse(user))
}

// Update applies partial changes to a user.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      int                true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to update"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return domain.NewValidationError("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return domain.NewValidationError(err.Error())
	}

	in := ports.UpdateUserInput{
		Name:                req.Name,
		Password:            req.Password,
		EstablishmentID:     req.EstablishmentID,
		RemoveEstablishment: req.RemoveEstablishment,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		in.Role = &role
	}

	user, err := h.users.UpdateUser(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponse(user))
}

// Delete removes a user. Self-deletion is blocked, and the last admin can
// never be removed.
//
// @Summary      Delete user
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	ident, err := callerIdentity(c)
	if err != nil {
		return err
	}
	if ident.ID == id {
		return domain.ErrSelfDelete
	}

	if err := h.users.DeleteUser(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted"})
}

// ListByRole returns all users holding the given role.
//
// @Summary      List users by role
// @Tags         users
// @Produce      json
// @Param        role  path      string  true  "Role"  Enums(admin, manager, server)
// @Success      200   {array}   userResponse
// @Failure      400   {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/role/{role} [get]
func (h *UserHandler) ListByRole(c echo.Context) error {
	users, err := h.users.ListUsersByRole(c.Request().Context(), domain.Role(c.Param("role")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponses(users))
}

// ListByEstablishment returns all users attached to an establishment.
//
// @Summary      List users by establishment
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "Establishment id"
// @Success      200  {array}   userResponse
// @Failure      400  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/establishment/{id} [get]
func (h *UserHandler) ListByEstablishment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	users, err := h.users.ListUsersByEstablishment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newUserResponses(users))
}

// Permissions returns the permission set a user's role grants.
//
// @Summary      User permissions
// @Tags         users
// @Produce      json
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  permissionsResponse
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/{id}/permissions [get]
func (h *UserHandler) Permissions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	perms, err := h.users.Permissions(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, permissionsResponse{UserID: id, Permissions: perms})
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"recipeshop/internal/model"
	"recipeshop/internal/service"
)

// UserHandler serves self-service account and administrator user endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// AccountRequest is the full account write representation.
type AccountRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=255"`
}

// AccountPatchRequest changes only the fields present.
type AccountPatchRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

// AccountResponse is the caller's own view of their account.
type AccountResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AdminUserRequest is the administrator write representation of a user.
type AdminUserRequest struct {
	Email    *string `json:"email" validate:"required,email,max=255"`
	Name     *string `json:"name" validate:"required,max=255"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
}

// AdminUserPatchRequest changes only the fields present.
type AdminUserPatchRequest struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
	IsStaff  *bool   `json:"is_staff"`
}

// AdminUserResponse is the administrator view of a user.
type AdminUserResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	IsStaff  bool   `json:"is_staff"`
}

func newAccountResponse(u *model.User) AccountResponse {
	return AccountResponse{Email: u.Email, Name: u.Name}
}

func newAdminUserResponse(u *model.User) AdminUserResponse {
	return AdminUserResponse{ID: u.ID, Email: u.Email, Name: u.Name, IsActive: u.IsActive, IsStaff: u.IsStaff}
}

// Create godoc
// @Summary Register a new user
// @Tags user
// @Accept json
// @Produce json
// @Param request body AccountRequest true "Registration data"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /user/create/ [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req AccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userService.Register(c.Request().Context(), service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, newAccountResponse(user))
}

// Me godoc
// @Summary Get the authenticated user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AccountResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me/ [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), caller(c).UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newAccountResponse(user))
}

// UpdateMe godoc
// @Summary Replace the authenticated user's account fields
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccountRequest true "Account data"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me/ [put]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req AccountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.patchMe(c, service.UserPatch{Email: &req.Email, Password: &req.Password, Name: &req.Name})
}

// PatchMe godoc
// @Summary Update some of the authenticated user's account fields
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AccountPatchRequest true "Account data"
// @Success 200 {object} AccountResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /user/me/ [patch]
func (h *UserHandler) PatchMe(c echo.Context) error {
	var req AccountPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.patchMe(c, service.UserPatch{Email: req.Email, Password: req.Password, Name: req.Name})
}

func (h *UserHandler) patchMe(c echo.Context, patch service.UserPatch) error {
	user, err := h.userService.UpdateUser(c.Request().Context(), caller(c).UserID, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newAccountResponse(user))
}

// AdminList godoc
// @Summary List all users
// @Tags user-admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AdminUserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /user/admin/list/ [get]
func (h *UserHandler) AdminList(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	resp := make([]AdminUserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, newAdminUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminGet godoc
// @Summary Get a user
// @Tags user-admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} AdminUserResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/admin/user/{id}/ [get]
func (h *UserHandler) AdminGet(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newAdminUserResponse(user))
}

// AdminUpdate godoc
// @Summary Replace a user's fields
// @Tags user-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body AdminUserRequest true "User data"
// @Success 200 {object} AdminUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/admin/user/{id}/ [put]
func (h *UserHandler) AdminUpdate(c echo.Context) error {
	var req AdminUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.adminPatch(c, service.UserPatch{Email: req.Email, Name: req.Name, IsActive: req.IsActive, IsStaff: req.IsStaff})
}

// AdminPatch godoc
// @Summary Update some of a user's fields
// @Tags user-admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body AdminUserPatchRequest true "User data"
// @Success 200 {object} AdminUserResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/admin/user/{id}/ [patch]
func (h *UserHandler) AdminPatch(c echo.Context) error {
	var req AdminUserPatchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.adminPatch(c, service.UserPatch{Email: req.Email, Name: req.Name, IsActive: req.IsActive, IsStaff: req.IsStaff})
}

func (h *UserHandler) adminPatch(c echo.Context, patch service.UserPatch) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	user, err := h.userService.UpdateUser(c.Request().Context(), id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, newAdminUserResponse(user))
}

// AdminDelete godoc
// @Summary Delete a user
// @Tags user-admin
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/admin/user/{id}/ [delete]
func (h *UserHandler) AdminDelete(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.userService.DeleteUser(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

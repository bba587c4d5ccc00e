package controllers

import (
	"net/http"
	"strconv"

	"imagehub/auth"
	"imagehub/models"
	"imagehub/repositories"
	"imagehub/services"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// AuthController exposes registration, login and administrative user
// management under /auth.
type AuthController struct {
	authService services.AuthService
	authFilter  restful.FilterFunction
}

// NewAuthController creates an AuthController instance.
func NewAuthController(authService services.AuthService, authFilter restful.FilterFunction) *AuthController {
	return &AuthController{authService: authService, authFilter: authFilter}
}

// LoginInput defines the structure of the login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput is the self-service password rotation body.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AdminChangePasswordInput is the admin-initiated password overwrite body.
type AdminChangePasswordInput struct {
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// RegisterRoutes sets up the auth-related routes for a go-restful WebService.
func (ctl *AuthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	adminOnly := auth.RequireRole(models.RoleAdmin)

	ws.Route(ws.POST("/register").To(ctl.registerHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(services.RegisterInput{}).
		Returns(http.StatusCreated, "User created successfully", services.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusConflict, "Email already exists", nil))

	ws.Route(ws.POST("/login").To(ctl.loginHandler).
		Doc("Authenticate and obtain a bearer token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(LoginInput{}).
		Returns(http.StatusOK, "Login successful", services.LoginResult{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", nil))

	ws.Route(ws.GET("/profile").Filter(ctl.authFilter).To(ctl.profileHandler).
		Doc("Get the caller's identity").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Writes(services.UserResponse{}).
		Returns(http.StatusOK, "Caller identity", services.UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil))

	ws.Route(ws.GET("/users").Filter(ctl.authFilter).Filter(adminOnly).To(ctl.listUsersHandler).
		Doc("List users with pagination and filters").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("limit", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Param(ws.QueryParameter("email", "Substring filter on email").DataType("string")).
		Param(ws.QueryParameter("name", "Substring filter on name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Writes(services.PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed successfully", services.PaginatedUsersResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.PUT("/users/{user-id}").Filter(ctl.authFilter).Filter(adminOnly).To(ctl.updateUserHandler).
		Doc("Update user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user to update").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(services.UpdateUserInput{}).
		Writes(services.UserResponse{}).
		Returns(http.StatusOK, "User updated successfully", services.UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body or user ID", nil).
		Returns(http.StatusUnauthorized, "User not found", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusConflict, "Email conflict", nil))

	ws.Route(ws.DELETE("/users/{user-id}").Filter(ctl.authFilter).Filter(adminOnly).To(ctl.deleteUserHandler).
		Doc("Delete user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user to delete").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Returns(http.StatusOK, "User deleted successfully", nil).
		Returns(http.StatusUnauthorized, "User not found", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.PUT("/change-password").Filter(ctl.authFilter).To(ctl.changePasswordHandler).
		Doc("Change the caller's own password").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(ChangePasswordInput{}).
		Returns(http.StatusOK, "Password changed successfully", nil).
		Returns(http.StatusUnauthorized, "Current password is incorrect", nil))

	ws.Route(ws.PUT("/users/{user-id}/change-password").Filter(ctl.authFilter).Filter(adminOnly).To(ctl.adminChangePasswordHandler).
		Doc("Overwrite a user's password as admin").
		Param(ws.PathParameter("user-id", "Identifier of the target user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(AdminChangePasswordInput{}).
		Returns(http.StatusOK, "Password changed successfully", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))
}

// --- Handler Functions ---

func (ctl *AuthController) registerHandler(request *restful.Request, response *restful.Response) {
	input := new(services.RegisterInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	user, err := ctl.authService.Register(input)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, user, restful.MIME_JSON)
}

func (ctl *AuthController) loginHandler(request *restful.Request, response *restful.Response) {
	input := new(LoginInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	result, err := ctl.authService.Login(input.Email, input.Password)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(result)
}

func (ctl *AuthController) profileHandler(request *restful.Request, response *restful.Response) {
	callerID, _, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := ctl.authService.ValidateUser(callerID)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(services.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
}

func (ctl *AuthController) listUsersHandler(request *restful.Request, response *restful.Response) {
	page := queryInt(request, "page", 1)
	limit := queryInt(request, "limit", 10)
	filter := repositories.UserFilter{
		Email: request.QueryParameter("email"),
		Name:  request.QueryParameter("name"),
	}

	result, err := ctl.authService.GetAllUsers(page, limit, filter)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(result)
}

func (ctl *AuthController) updateUserHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}

	input := new(services.UpdateUserInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	user, err := ctl.authService.UpdateUser(userID, input)
	if err != nil {
		writeServiceError(response, err)
		return
	}
	_ = response.WriteAsJson(user)
}

func (ctl *AuthController) deleteUserHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}

	if err := ctl.authService.DeleteUser(userID); err != nil {
		writeServiceError(response, err)
		return
	}
	writeMessage(response, http.StatusOK, "User deleted successfully")
}

func (ctl *AuthController) changePasswordHandler(request *restful.Request, response *restful.Response) {
	callerID, _, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	input := new(ChangePasswordInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	if err := ctl.authService.ChangePassword(callerID, input.CurrentPassword, input.NewPassword); err != nil {
		writeServiceError(response, err)
		return
	}
	writeMessage(response, http.StatusOK, "Password changed successfully")
}

func (ctl *AuthController) adminChangePasswordHandler(request *restful.Request, response *restful.Response) {
	callerID, _, ok := auth.CallerFromRequest(request)
	if !ok {
		writeMessage(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	userID, okID := pathID(request, response, "user-id")
	if !okID {
		return
	}

	input := new(AdminChangePasswordInput)
	if !readValidatedEntity(request, response, input) {
		return
	}

	if err := ctl.authService.AdminChangeUserPassword(callerID, userID, input.NewPassword); err != nil {
		writeServiceError(response, err)
		return
	}
	writeMessage(response, http.StatusOK, "Password changed successfully by admin")
}

// pathID parses a numeric path parameter, writing a 400 itself on failure.
func pathID(request *restful.Request, response *restful.Response, name string) (uint, bool) {
	raw := request.PathParameter(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt parses an integer query parameter with a default.
func queryInt(request *restful.Request, name string, def int) int {
	raw := request.QueryParameter(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

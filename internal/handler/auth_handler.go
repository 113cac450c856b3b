package handler

import (
	"net/http"

	"civic_reporter/internal/middleware"
	"civic_reporter/internal/model"
	"civic_reporter/internal/response"
	"civic_reporter/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	service service.AuthService
	logger  *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger}
}

func (h *AuthHandler) LoginCitizen(c *gin.Context) {
	var req model.CitizenLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.service.LoginCitizen(c.Request.Context(), req, middleware.BearerToken(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to login")
		return
	}
	response.Success(c, http.StatusOK, "Login successful", result)
}

func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	h.loginStaff(c, model.RoleAdmin)
}

func (h *AuthHandler) LoginMunicipality(c *gin.Context) {
	h.loginStaff(c, model.RoleMunicipality)
}

func (h *AuthHandler) loginStaff(c *gin.Context, role model.Role) {
	var req model.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.service.LoginStaff(c.Request.Context(), role, req, c.ClientIP(), middleware.BearerToken(c))
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to login")
		return
	}
	response.Success(c, http.StatusOK, "Login successful", result)
}

// Session returns the caller's current session. Anonymous callers get a
// successful response without data.
func (h *AuthHandler) Session(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil {
		response.Success(c, http.StatusOK, "No active session", nil)
		return
	}
	response.Success(c, http.StatusOK, "Session active", sess)
}

// Logout is idempotent: an absent or stale token still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), middleware.BearerToken(c)); err != nil {
		response.FromError(c, h.logger, err, "Failed to logout")
		return
	}
	response.Success(c, http.StatusOK, "Logged out", nil)
}

// CreateStaff provisions an admin or municipality account.
func (h *AuthHandler) CreateStaff(c *gin.Context) {
	var req model.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "Invalid request: "+err.Error())
		return
	}

	account, err := h.service.CreateStaff(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, h.logger, err, "Failed to create staff account")
		return
	}
	response.Success(c, http.StatusCreated, "Staff account created", account)
}

// RegisterAuthRoutes registers auth routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, adminMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/citizen/login", h.LoginCitizen)
		authGroup.POST("/admin/login", h.LoginAdmin)
		authGroup.POST("/municipality/login", h.LoginMunicipality)
		authGroup.GET("/session", h.Session)
		authGroup.POST("/logout", h.Logout)
	}

	adminRoutes := rg.Group("/admin")
	adminRoutes.Use(adminMW)
	{
		adminRoutes.POST("/staff", h.CreateStaff)
	}
}

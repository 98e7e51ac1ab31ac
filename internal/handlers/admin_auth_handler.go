package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vistalens/booking-backend/internal/models"
	"github.com/vistalens/booking-backend/internal/services"
)

// AdminAuthHandler handles admin authentication HTTP requests
type AdminAuthHandler struct {
	adminService *services.AdminService
	logger       *logrus.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(adminService *services.AdminService, logger *logrus.Logger) *AdminAuthHandler {
	return &AdminAuthHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// Login handles admin login requests
// @Summary Admin login
// @Description Authenticate against the admin allowlist and return a session token
// @Tags Admin Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.AdminLoginRequest true "Login credentials"
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} map[string]interface{} "Invalid request body"
// @Failure 401 {object} map[string]interface{} "Invalid credentials"
// @Router /admin/login [post]
func (h *AdminAuthHandler) Login(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.adminService.Login(req.Email, req.Password)
	if err != nil {
		h.logger.WithField("email", req.Email).Warn("Admin login failed")
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/models"
	"github.com/yukikurage/company-task-api/internal/services"
	"github.com/yukikurage/company-task-api/internal/token"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	identityService *services.IdentityService
	tokens          *token.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(identityService *services.IdentityService, tokens *token.Manager) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		tokens:          tokens,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account whose registration still has to be completed.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username string          `json:"username" binding:"required"`
		Email    string          `json:"email" binding:"required"`
		Password string          `json:"password" binding:"required"`
		Role     models.UserRole `json:"role" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.identityService.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration started, complete it to join a company",
		"user":    dto.ToUserDTO(*user),
	})
}

// CompleteRegistration creates (admins) or joins (employees) a company.
func (h *AuthHandler) CompleteRegistration(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CompleteRegistrationRequest struct {
		CompanyName string `json:"company_name"`
		CompanyCode string `json:"company_code"`
	}

	var req CompleteRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, company, err := h.identityService.CompleteRegistration(c.Request.Context(), userID, services.CompleteRegistrationInput{
		CompanyName: req.CompanyName,
		CompanyCode: req.CompanyCode,
	})
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	auth, ok := h.issue(c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.CompleteRegistrationResponse{
		AuthResponse: auth,
		Company:      dto.ToCompanyDTO(*company),
	})
}

// Login authenticates a user and initializes the session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.identityService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	h.startSession(c, user)
}

// AdminLogin is Login for admins only.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	user, err := h.identityService.LoginAdmin(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	h.startSession(c, user)
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.identityService.GetUser(c.Request.Context(), userID)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func (h *AuthHandler) startSession(c *gin.Context, user *models.User) {
	auth, ok := h.issue(c, user)
	if !ok {
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, auth)
}

func (h *AuthHandler) issue(c *gin.Context, user *models.User) (dto.AuthResponse, bool) {
	var companyCode string
	if user.CompanyCode != nil {
		companyCode = *user.CompanyCode
	}

	signed, expiresAt, err := h.tokens.Generate(user.ID, string(user.Role), companyCode)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return dto.AuthResponse{}, false
	}

	return dto.AuthResponse{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		User:        dto.ToUserDTO(*user),
	}, true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/company-task-api/internal/dto"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/services"
)

type CompanyHandler struct {
	identityService *services.IdentityService
}

func NewCompanyHandler(identityService *services.IdentityService) *CompanyHandler {
	return &CompanyHandler{
		identityService: identityService,
	}
}

// GetCompany returns the caller's company
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	company, err := h.identityService.GetCompany(c.Request.Context(), principal)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyDTO(*company))
}

// ListEmployees returns the members of the caller's company
func (h *CompanyHandler) ListEmployees(c *gin.Context) {
	principal, ok := principalOrAbort(c)
	if !ok {
		return
	}

	users, err := h.identityService.ListCompanyMembers(c.Request.Context(), principal)
	if err != nil {
		apierrors.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees": dto.ToMemberDTOs(users),
	})
}

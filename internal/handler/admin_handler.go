package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/music-lessons-api/internal/dto"
	"github.com/noah-isme/music-lessons-api/internal/models"
	"github.com/noah-isme/music-lessons-api/pkg/response"
)

type adminService interface {
	Get(ctx context.Context, accountID string) (*models.Account, error)
	Update(ctx context.Context, accountID string, req dto.AdminProfileUpdateRequest) (*models.Account, error)
	ListAccounts(ctx context.Context, rawRole, search string) ([]models.Account, error)
	DeleteAccount(ctx context.Context, callerID, accountID string) error
}

// AdminHandler serves the admin profile and account management endpoints.
type AdminHandler struct {
	service adminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc adminService) *AdminHandler {
	return &AdminHandler{service: svc}
}

// GetProfile godoc
// @Summary Get the caller's admin account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/profile [get]
func (h *AdminHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	account, err := h.service.Get(c.Request.Context(), claims.AccountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAccountResponse(account))
}

// UpdateProfile godoc
// @Summary Update the caller's admin account
// @Description Changes the outreach source and, given the current PIN, the admin PIN.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.AdminProfileUpdateRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/profile [put]
func (h *AdminHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	var req dto.AdminProfileUpdateRequest
	if !bindJSON(c, &req, "admin profile") {
		return
	}
	account, err := h.service.Update(c.Request.Context(), claims.AccountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewAccountResponse(account))
}

// ListAccounts godoc
// @Summary List accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param role query string false "admin, teacher or student"
// @Param search query string false "Email substring"
// @Success 200 {object} response.Envelope
// @Router /admin/accounts [get]
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.service.ListAccounts(c.Request.Context(), c.Query("role"), c.Query("search"))
	if err != nil {
		response.Error(c, err)
		return
	}
	views := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		views = append(views, dto.NewAccountResponse(&accounts[i]))
	}
	response.JSON(c, http.StatusOK, views, map[string]interface{}{"count": len(views)})
}

// DeleteAccount godoc
// @Summary Delete an account and its profile
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/accounts/{id} [delete]
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		return
	}
	if err := h.service.DeleteAccount(c.Request.Context(), claims.AccountID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

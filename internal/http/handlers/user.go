package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/vaultvoice-backend/internal/http/response"
	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/vaultvoice-backend/internal/types"
)

type UserStore interface {
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*types.User, error)
	Upsert(ctx context.Context, tx *gorm.DB, user *types.User) error
}

type UserHandler struct {
	users UserStore
}

func NewUserHandler(users UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.users.GetByID(c.Request.Context(), nil, ctxutil.UserID(c.Request.Context()))
	if err != nil {
		if isNotFound(err) {
			response.RespondError(c, http.StatusNotFound, "user_not_found", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "get_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PUT /api/me
// body: { "email": "...", "time_zone": "America/Chicago", "drive_refresh_token": "...", "vault_enabled": true }
func (uh *UserHandler) PutMe(c *gin.Context) {
	var req struct {
		Email             string `json:"email"`
		TimeZone          string `json:"time_zone"`
		DriveRefreshToken string `json:"drive_refresh_token"`
		VaultEnabled      bool   `json:"vault_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tz := strings.TrimSpace(req.TimeZone)
	if tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_time_zone", err)
			return
		}
	}
	userID := ctxutil.UserID(c.Request.Context())
	err := uh.users.Upsert(c.Request.Context(), nil, &types.User{
		ID:                userID,
		Email:             strings.TrimSpace(req.Email),
		TimeZone:          tz,
		DriveRefreshToken: strings.TrimSpace(req.DriveRefreshToken),
		VaultEnabled:      req.VaultEnabled,
	})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "save_user_failed", err)
		return
	}
	u, err := uh.users.GetByID(c.Request.Context(), nil, userID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_me_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"me": u})
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

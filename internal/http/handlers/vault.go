package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/vaultvoice-backend/internal/http/response"
	"github.com/yungbote/vaultvoice-backend/internal/platform/apierr"
	"github.com/yungbote/vaultvoice-backend/internal/platform/ctxutil"
	"github.com/yungbote/vaultvoice-backend/internal/types"
	"github.com/yungbote/vaultvoice-backend/internal/vault/adapter"
)

type VaultService interface {
	Provision(ctx context.Context, userID string) (*adapter.Folders, error)
	BuildContext(ctx context.Context, userID string, partition types.Partition, query string) string
}

type VaultHandler struct {
	vault VaultService
}

func NewVaultHandler(vault VaultService) *VaultHandler {
	return &VaultHandler{vault: vault}
}

// POST /api/vault/provision
func (h *VaultHandler) Provision(c *gin.Context) {
	folders, err := h.vault.Provision(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, provisionError(err))
		return
	}
	partitions := make(map[string]string, len(folders.Partitions))
	for p, id := range folders.Partitions {
		partitions[string(p)] = id
	}
	response.RespondOK(c, gin.H{"root_id": folders.RootID, "partitions": partitions})
}

// GET /api/vault/context?partition=Sleep&q=how+did+I+sleep
func (h *VaultHandler) Context(c *gin.Context) {
	p, ok := types.ParsePartition(c.Query("partition"))
	if !ok {
		response.RespondError(c, http.StatusBadRequest, "invalid_partition", errors.New("unknown partition"))
		return
	}
	text := h.vault.BuildContext(c.Request.Context(), ctxutil.UserID(c.Request.Context()), p, c.Query("q"))
	response.RespondOK(c, gin.H{"partition": p, "context": text})
}

func provisionError(err error) *apierr.Error {
	switch {
	case adapter.IsNotConnected(err):
		return apierr.New(http.StatusConflict, "vault_not_connected", err)
	case isNotFound(err):
		return apierr.New(http.StatusNotFound, "user_not_found", err)
	default:
		return apierr.New(http.StatusBadGateway, "provision_failed", err)
	}
}

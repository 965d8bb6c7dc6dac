package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/platform/gcp"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

var newStorageClient = gcp.NewStorageClient

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingOAuthClient  StorageProviderBootstrapErrorCode = "missing_oauth_client"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "vault store bootstrap failed"
	}
	return fmt.Sprintf(
		"vault store bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// storeProvider is the selected vault backend plus whatever must be closed
// with it.
type storeProvider struct {
	Connector store.Connector
	Mode      string
	gcs       *storage.Client
}

func (p *storeProvider) Close() error {
	if p == nil || p.gcs == nil {
		return nil
	}
	return p.gcs.Close()
}

func resolveStoreConnector(ctx context.Context, log *logger.Logger, cfg config.StoreConfig) (*storeProvider, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	log.Info(
		"Selecting vault store provider",
		"mode", mode,
		"root_folder", cfg.RootFolderName,
		"emulator_host", cfg.EmulatorHost,
	)

	switch mode {
	case "memory":
		log.Warn("vault store is in-memory; logs are lost on restart")
		return &storeProvider{Connector: store.NewMemoryConnector(), Mode: mode}, nil

	case "drive":
		if strings.TrimSpace(cfg.OAuthClientID) == "" || strings.TrimSpace(cfg.OAuthClientSecret) == "" {
			err := &StorageProviderBootstrapError{
				Code:  StorageProviderBootstrapErrorMissingOAuthClient,
				Mode:  mode,
				Cause: errors.New("drive mode requires an OAuth client id and secret"),
			}
			log.Error("Vault store provider selection failed", "mode", mode, "error_code", err.Code, "error", err)
			return nil, err
		}
		return &storeProvider{
			Connector: store.NewDriveConnector(cfg.OAuthClientID, cfg.OAuthClientSecret),
			Mode:      mode,
		}, nil

	case string(gcp.ObjectStorageModeGCS), string(gcp.ObjectStorageModeGCSEmulator):
		storageCfg := gcp.ObjectStorageConfig{
			Mode:         gcp.ObjectStorageMode(mode),
			EmulatorHost: strings.TrimSpace(cfg.EmulatorHost),
			Bucket:       strings.TrimSpace(cfg.Bucket),
			Credentials:  cfg.Credentials,
		}
		client, err := newStorageClient(ctx, storageCfg)
		if err != nil {
			classified := classifyStorageProviderBootstrapError(storageCfg, err)
			log.Error(
				"Vault store provider bootstrap failed",
				"mode", mode,
				"emulator_host", storageCfg.EmulatorHost,
				"error_code", storageProviderBootstrapErrorCode(classified),
				"error", classified,
			)
			return nil, classified
		}
		return &storeProvider{
			Connector: store.NewGCSConnector(client, storageCfg.Bucket),
			Mode:      mode,
			gcs:       client,
		}, nil

	default:
		err := &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorInvalidMode,
			Mode:  mode,
			Cause: fmt.Errorf("unsupported vault store mode %q", mode),
		}
		log.Error("Vault store provider selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}

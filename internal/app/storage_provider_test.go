package app

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/storage"

	"github.com/yungbote/vaultvoice-backend/internal/config"
	"github.com/yungbote/vaultvoice-backend/internal/platform/gcp"
	"github.com/yungbote/vaultvoice-backend/internal/platform/logger"
	"github.com/yungbote/vaultvoice-backend/internal/vault/store"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket}, StorageProviderBootstrapErrorMissingBucket},
		{"missing emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect failed", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator}, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("cause not preserved: %v", err)
			}
		})
	}
}

func TestResolveStoreConnectorMemory(t *testing.T) {
	p, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{Mode: "memory"})
	if err != nil {
		t.Fatalf("resolveStoreConnector: %v", err)
	}
	if _, ok := p.Connector.(*store.MemoryConnector); !ok {
		t.Fatalf("connector: want *store.MemoryConnector, got %T", p.Connector)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestResolveStoreConnectorDriveNeedsOAuthClient(t *testing.T) {
	_, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{Mode: "drive"})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorMissingOAuthClient {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorMissingOAuthClient, got)
	}

	p, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{
		Mode: "drive", OAuthClientID: "id", OAuthClientSecret: "secret",
	})
	if err != nil {
		t.Fatalf("resolveStoreConnector: %v", err)
	}
	if _, ok := p.Connector.(*store.DriveConnector); !ok {
		t.Fatalf("connector: want *store.DriveConnector, got %T", p.Connector)
	}
}

func TestResolveStoreConnectorInvalidMode(t *testing.T) {
	_, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{Mode: "s3"})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, got)
	}
}

func TestResolveStoreConnectorGCSEmulator(t *testing.T) {
	orig := newStorageClient
	t.Cleanup(func() { newStorageClient = orig })

	var captured gcp.ObjectStorageConfig
	newStorageClient = func(_ context.Context, cfg gcp.ObjectStorageConfig) (*storage.Client, error) {
		captured = cfg
		return nil, errors.New("connection refused")
	}

	_, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{
		Mode:         "gcs_emulator",
		Bucket:       "vault",
		EmulatorHost: "http://fake-gcs:4443",
	})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, got)
	}
	if captured.Mode != gcp.ObjectStorageModeGCSEmulator || captured.Bucket != "vault" {
		t.Fatalf("captured config: %+v", captured)
	}
	if captured.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: want=%q got=%q", "http://fake-gcs:4443", captured.EmulatorHost)
	}
}

func TestResolveStoreConnectorRealValidation(t *testing.T) {
	_, err := resolveStoreConnector(context.Background(), logger.Nop(), config.StoreConfig{
		Mode:         "gcs_emulator",
		Bucket:       "vault",
		EmulatorHost: "not-a-url",
	})
	if got := storageProviderBootstrapErrorCode(err); got != StorageProviderBootstrapErrorInvalidEmulatorHost {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidEmulatorHost, got)
	}
}

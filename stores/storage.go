package stores

import (
	"context"
	"fmt"
	"os"

	"wireframe-canvas/core"
	"wireframe-canvas/stores/filesystem"
	"wireframe-canvas/stores/memory"
	"wireframe-canvas/stores/s3"
	"wireframe-canvas/stores/sqlite"

	"github.com/sirupsen/logrus"
)

// Store is implemented by every storage backend.
type Store interface {
	core.DocumentStore
	core.SceneStore
	Settings() core.SettingsStore
}

// GetStore builds the backend named by STORAGE_TYPE.
func GetStore(ctx context.Context) (Store, error) {
	storageType := os.Getenv("STORAGE_TYPE")
	var (
		store Store
		err   error
	)

	storageField := logrus.Fields{
		"storageType": storageType,
	}

	switch storageType {
	case "filesystem":
		basePath := getenv("LOCAL_STORAGE_PATH", "./data")
		storageField["basePath"] = basePath
		store, err = filesystem.NewStore(basePath)
	case "sqlite":
		dataSourceName := getenv("DATA_SOURCE_NAME", "canvas.db")
		storageField["dataSourceName"] = dataSourceName
		store, err = sqlite.NewStore(dataSourceName)
	case "s3":
		bucketName := os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			return nil, fmt.Errorf("S3_BUCKET_NAME is required for s3 storage")
		}
		storageField["bucketName"] = bucketName
		store, err = s3.NewStore(ctx, bucketName)
	case "", "memory":
		store = memory.NewStore()
		storageField["storageType"] = "in-memory"
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", storageType)
	}
	if err != nil {
		logrus.WithFields(storageField).WithError(err).Error("Failed to open storage")
		return nil, err
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store, nil
}

// Snapshots returns the snapshot store of backends that keep snapshots.
func Snapshots(store Store) (core.SnapshotStore, bool) {
	snapshots, ok := store.(core.SnapshotStore)
	return snapshots, ok
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

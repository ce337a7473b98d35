package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Backend names accepted by CATALOG_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMariaDB  = "mariadb"
)

var (
	backendMu     sync.RWMutex
	backendName   string
	backendWriter func() Writer
)

// RegisterBackend registers the active catalog backend.
// This is called by the backend packages to avoid import cycles.
func RegisterBackend(name string, writer func() Writer) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendName = name
	backendWriter = writer
}

// IsInitialized returns whether a catalog backend has been registered.
func IsInitialized() bool {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendWriter != nil
}

// BackendName returns the name of the registered backend, or "" if none.
func BackendName() string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName
}

// GetWriter returns a Writer from the registered backend
func GetWriter(ctx context.Context) (Writer, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if backendWriter == nil {
		return nil, errors.New("catalog backend not initialized: DATABASE_URL or MARIADB_DSN is required")
	}
	w := backendWriter()
	if w == nil {
		return nil, fmt.Errorf("catalog backend %s returned no writer", backendName)
	}
	return w, nil
}

// GetReader returns a Reader from the registered backend
func GetReader(ctx context.Context) (Reader, error) {
	w, err := GetWriter(ctx)
	if err != nil {
		return nil, err
	}
	return w, nil
}

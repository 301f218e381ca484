// Package backend opens the ledger store selected by configuration together
// with the optional change-notification client.
package backend

import (
	"context"

	"kakeibo/internal/amqp"
	"kakeibo/internal/services"
	"kakeibo/internal/storage"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult holds an opened store and, when AMQP is configured and
// reachable, the client that publishes its changes.
type BackendResult struct {
	Store     storage.Store
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// ChangePublisher returns the publisher as the ledger service expects it,
// or nil when AMQP is off.
func (r *BackendResult) ChangePublisher() services.ChangePublisher {
	if r.Publisher == nil {
		return nil
	}
	return r.Publisher
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type BackendType

	// sqlite
	SQLiteDBPath string

	// memory; empty means start with no categories
	SeedFile string

	// AMQP is optional for either store
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType names a storage implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

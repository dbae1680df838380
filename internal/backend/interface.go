// Package backend selects and builds the storage backend and the optional
// message broker client from configuration.
package backend

import (
	"context"

	"spendwise/internal/amqp"
	"spendwise/internal/auth"
	"spendwise/internal/preferences"
	"spendwise/internal/services"
)

// Store is everything the services need from persistence.
type Store interface {
	services.ExpenseStore
	auth.UserStore
	preferences.Store
	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Store Store
	// AMQP is nil when no broker is configured or it was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP turns an unreachable broker into an error instead of a
	// warning. The export worker cannot run without one.
	RequireAMQP bool
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

package api

import (
	"context"

	"github.com/persistorai/triplewalk/internal/domain"
)

// QueryService is the read surface served over HTTP.
type QueryService = domain.QueryService

// Pinger checks backend connectivity for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

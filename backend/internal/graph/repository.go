package graph

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	apperrors "follownet/backend/pkg/errors"
	"follownet/backend/pkg/logger"
)

// Repository handles all Neo4j database operations for the follow graph.
// Every operation opens its own session; concurrent requests are
// serialized by Neo4j itself, not by any in-process locking.
type Repository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	return &Repository{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}

// EnsureSchema creates the uniqueness constraints the user operations rely
// on. user_id and the lowercased username are each unique; a concurrent
// duplicate write fails at commit instead of slipping past the in-query
// checks.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	session := r.writeSession(ctx)
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:User) REQUIRE u.user_id IS UNIQUE",
		"CREATE CONSTRAINT username_lower_unique IF NOT EXISTS FOR (u:User) REQUIRE u.username_lower IS UNIQUE",
	}

	for _, constraint := range constraints {
		result, err := session.Run(ctx, constraint, nil)
		if err != nil {
			return apperrors.NewGraphUnavailable("ensure schema", err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return apperrors.NewGraphUnavailable("ensure schema", err)
		}
	}

	r.logger.Info("Graph schema constraints ensured")
	return nil
}

func (r *Repository) readSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

func (r *Repository) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

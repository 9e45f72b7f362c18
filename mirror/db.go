package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/pkg/errors"
)

// DBRunner executes one Cypher statement against the mirror target. It is the
// seam tests replace with an in-memory recorder.
type DBRunner interface {
	// Run executes a Cypher query with parameters and returns a fully-buffered result.
	Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error)
}

// Neo4jExecutor is the DBRunner backed by the official Neo4j Go driver. Every
// statement runs against DBName.
type Neo4jExecutor struct {
	Driver neo4j.DriverWithContext
	DBName string
	URI    string
	Logger *slog.Logger
}

// NewNeo4jExecutor creates the driver for uri. It does not contact the
// server; call Verify for that.
//
// Parameters:
//   - uri: The connection URI for the Neo4j instance (e.g., "neo4j://localhost:7687").
//   - username, password: Basic auth credentials.
//   - dbName: The database the mirror writes into (e.g., "neo4j").
func NewNeo4jExecutor(uri, username, password, dbName string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, errors.Wrapf(err, "create neo4j driver for %s", uri)
	}
	return &Neo4jExecutor{
		Driver: driver,
		DBName: dbName,
		URI:    uri,
		Logger: slog.New(slog.DiscardHandler),
	}, nil
}

// Verify checks that the server at URI answers.
func (e *Neo4jExecutor) Verify(ctx context.Context) error {
	if err := e.Driver.VerifyConnectivity(ctx); err != nil {
		return errors.Wrapf(err, "neo4j at %s is unreachable", e.URI)
	}
	e.logger().Debug("neo4j reachable", "uri", e.URI, "database", e.DBName)
	return nil
}

// Close releases the driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.Driver.Close(ctx)
}

// Run executes query in a managed transaction against DBName and buffers
// every record.
func (e *Neo4jExecutor) Run(ctx context.Context, query string, params map[string]interface{}) (*neo4j.EagerResult, error) {
	start := time.Now()
	result, err := neo4j.ExecuteQuery(ctx, e.Driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.DBName),
		neo4j.ExecuteQueryWithWritersRouting(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "run cypher on %s", e.DBName)
	}
	e.logger().Debug("cypher statement",
		"database", e.DBName,
		"records", len(result.Records),
		"duration", time.Since(start),
	)
	return result, nil
}

func (e *Neo4jExecutor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

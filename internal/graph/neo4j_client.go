package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jClient implements Client on top of the official Bolt driver.
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jClient connects to the graph database and verifies connectivity
// before returning.
func NewNeo4jClient(ctx context.Context, opts Options) (*Neo4jClient, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}
	if opts.Database == "" {
		opts.Database = "neo4j"
	}
	if opts.MaxConnections == 0 {
		opts.MaxConnections = 50
	}

	auth := neo4j.BasicAuth(opts.Username, opts.Password, "")

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = opts.MaxConnections
		config.ConnectionAcquisitionTimeout = 30 * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	return &Neo4jClient{
		driver:   driver,
		database: opts.Database,
	}, nil
}

// ExecuteRead runs a read-only Cypher query in its own session.
func (c *Neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.execute(ctx, cypher, params, neo4j.AccessModeRead)
}

// ExecuteWrite runs a write Cypher query in its own session.
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return c.execute(ctx, cypher, params, neo4j.AccessModeWrite)
}

func (c *Neo4jClient) execute(ctx context.Context, cypher string, params map[string]any, mode neo4j.AccessMode) (Result, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return Result{}, fmt.Errorf("failed to run query: %w", err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to collect results: %w", err)
	}

	out := Result{Records: make([]Record, len(records))}
	for i, record := range records {
		out.Records[i] = Record(record.AsMap())
	}
	return out, nil
}

// VerifyConnectivity checks the connection to the graph database.
func (c *Neo4jClient) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and its connection pool.
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/athena-graph/athena/internal/config"
	"github.com/athena-graph/athena/internal/graph"
	"github.com/athena-graph/athena/pkg/logger"
)

// Dataset is the on-disk import format: a flat node list plus a flat
// relationship list referencing nodes by id.
type Dataset struct {
	Nodes         []DatasetNode         `json:"nodes"`
	Relationships []DatasetRelationship `json:"relationships"`
}

type DatasetNode struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
}

type DatasetRelationship struct {
	From       string         `json:"from"`
	To         string         `json:"to"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

var (
	configFile string
	dataFile   string
	batchSize  int

	rootCmd = &cobra.Command{
		Use:   "athena-import",
		Short: "Bulk loader for the Athena knowledge graph",
		Long:  "Imports a JSON dataset of nodes and relationships into Neo4j. Imports are idempotent: nodes and relationships are merged by id.",
		Run:   runImport,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./athena.yaml)")
	rootCmd.Flags().StringVarP(&dataFile, "file", "f", "", "JSON dataset to import (required)")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", 500, "rows per write transaction")
	rootCmd.MarkFlagRequired("file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runImport(cmd *cobra.Command, args []string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("athena")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Warning: config file not found, using defaults and environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.Logging.Level, cfg.Debug)

	dataset, err := loadDataset(dataFile)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	ctx := context.Background()

	client, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Neo4j.URI,
		Database:       cfg.Neo4j.Database,
		Username:       cfg.Neo4j.Username,
		Password:       cfg.Neo4j.Password,
		MaxConnections: cfg.Neo4j.MaxConnectionPoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer client.Close(ctx)

	start := time.Now()

	if err := ensureConstraints(ctx, client, dataset); err != nil {
		log.Fatalf("Failed to create constraints: %v", err)
	}

	nodes, err := importNodes(ctx, client, dataset.Nodes, batchSize)
	if err != nil {
		log.Fatalf("Node import failed: %v", err)
	}

	rels, err := importRelationships(ctx, client, dataset.Relationships, batchSize)
	if err != nil {
		log.Fatalf("Relationship import failed: %v", err)
	}

	logg.Info("import complete",
		"nodes", nodes,
		"relationships", rels,
		"duration", time.Since(start).String(),
	)
}

func loadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var dataset Dataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	for i, n := range dataset.Nodes {
		if n.ID == "" || n.Label == "" {
			return nil, fmt.Errorf("node %d: id and label are required", i)
		}
	}
	for i, r := range dataset.Relationships {
		if r.From == "" || r.To == "" || r.Type == "" {
			return nil, fmt.Errorf("relationship %d: from, to and type are required", i)
		}
	}

	return &dataset, nil
}

// ensureConstraints creates a uniqueness constraint per node label so the
// MERGE during import stays an index lookup.
func ensureConstraints(ctx context.Context, client graph.Client, dataset *Dataset) error {
	labels := make(map[string]struct{})
	for _, n := range dataset.Nodes {
		labels[n.Label] = struct{}{}
	}

	for label := range labels {
		cypher := fmt.Sprintf(
			"CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", label)
		if _, err := client.ExecuteWrite(ctx, cypher, nil); err != nil {
			return fmt.Errorf("constraint for %s: %w", label, err)
		}
	}
	return nil
}

func importNodes(ctx context.Context, client graph.Client, nodes []DatasetNode, batch int) (int, error) {
	// Labels cannot be parameterized, so nodes are batched per label.
	byLabel := make(map[string][]DatasetNode)
	for _, n := range nodes {
		byLabel[n.Label] = append(byLabel[n.Label], n)
	}

	total := 0
	for label, group := range byLabel {
		cypher := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (n:%s {id: row.id})
SET n += row.props
`, label)

		for start := 0; start < len(group); start += batch {
			end := start + batch
			if end > len(group) {
				end = len(group)
			}

			rows := make([]map[string]any, 0, end-start)
			for _, n := range group[start:end] {
				props := n.Properties
				if props == nil {
					props = map[string]any{}
				}
				rows = append(rows, map[string]any{"id": n.ID, "props": props})
			}

			if _, err := client.ExecuteWrite(ctx, cypher, map[string]any{"rows": rows}); err != nil {
				return total, fmt.Errorf("label %s batch at %d: %w", label, start, err)
			}
			total += len(rows)
		}
	}
	return total, nil
}

func importRelationships(ctx context.Context, client graph.Client, rels []DatasetRelationship, batch int) (int, error) {
	// Relationship types cannot be parameterized either.
	byType := make(map[string][]DatasetRelationship)
	for _, r := range rels {
		byType[r.Type] = append(byType[r.Type], r)
	}

	total := 0
	for relType, group := range byType {
		cypher := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (a {id: row.from})
MATCH (b {id: row.to})
MERGE (a)-[r:%s]->(b)
SET r += row.props
`, relType)

		for start := 0; start < len(group); start += batch {
			end := start + batch
			if end > len(group) {
				end = len(group)
			}

			rows := make([]map[string]any, 0, end-start)
			for _, r := range group[start:end] {
				props := r.Properties
				if props == nil {
					props = map[string]any{}
				}
				rows = append(rows, map[string]any{"from": r.From, "to": r.To, "props": props})
			}

			if _, err := client.ExecuteWrite(ctx, cypher, map[string]any{"rows": rows}); err != nil {
				return total, fmt.Errorf("type %s batch at %d: %w", relType, start, err)
			}
			total += len(rows)
		}
	}
	return total, nil
}

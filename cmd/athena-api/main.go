package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	consulapi "github.com/hashicorp/consul/api"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/athena-graph/athena/internal/cache"
	"github.com/athena-graph/athena/internal/circuitbreaker"
	"github.com/athena-graph/athena/internal/config"
	"github.com/athena-graph/athena/internal/graph"
	"github.com/athena-graph/athena/internal/molecule"
	"github.com/athena-graph/athena/internal/pathway"
	"github.com/athena-graph/athena/internal/server"
	"github.com/athena-graph/athena/pkg/logger"
)

const serviceName = "athena-api"

var (
	configFile string
	rootCmd    = &cobra.Command{
		Use:   "athena-api",
		Short: "Athena drug intelligence graph API",
		Long:  "REST API over the Athena knowledge graph: molecule lookups, search, statistics and multi-hop pathway analysis.",
		Run:   runServer,
	}
)

func main() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./athena.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) {
	initConfig()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.Logging.Level, cfg.Debug)

	ctx := context.Background()

	graphClient, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:            cfg.Neo4j.URI,
		Database:       cfg.Neo4j.Database,
		Username:       cfg.Neo4j.Username,
		Password:       cfg.Neo4j.Password,
		MaxConnections: cfg.Neo4j.MaxConnectionPoolSize,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Neo4j: %v", err)
	}
	defer graphClient.Close(ctx)

	logg.Info("connected to Neo4j", "uri", cfg.Neo4j.URI, "database", cfg.Neo4j.Database)

	responseCache, err := buildCache(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	breaker := circuitbreaker.NewGraphBreaker(5, 30*time.Second, logg)
	accessor := graph.NewCypherAccessor(graphClient, breaker)

	engine := pathway.NewEngine(accessor, pathway.Config{
		DefaultMaxHops: cfg.Traversal.DefaultMaxHops,
		HardMaxHops:    cfg.Traversal.HardMaxHops,
		DefaultLimit:   cfg.Traversal.DefaultLimit,
		Timeout:        cfg.Traversal.Timeout,
		RetryBackoff:   cfg.Traversal.RetryBackoff,
	}, logg)

	molecules := molecule.NewRepository(graphClient)

	var metrics *server.Metrics
	if cfg.Monitoring.Enabled {
		metrics = server.NewMetrics()
	}

	srv := server.New(cfg, logg, graphClient, molecules, engine, responseCache, metrics)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Router(),
	}

	go func() {
		logg.Info("starting Athena API", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("failed to start server", "error", err)
		}
	}()

	if cfg.Monitoring.Enabled {
		go func() {
			metricsAddr := fmt.Sprintf(":%d", cfg.Monitoring.Port)
			logg.Info("starting metrics server", "address", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
				logg.Error("metrics server failed", "error", err)
			}
		}()
	}

	var consulClient *consulapi.Client
	var serviceID string
	if cfg.Consul.Enabled {
		consulClient, serviceID, err = registerConsul(cfg)
		if err != nil {
			logg.Warn("failed to register with Consul", "error", err)
		} else {
			logg.Info("registered with Consul", "service_id", serviceID)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down Athena API")

	if consulClient != nil && serviceID != "" {
		if err := consulClient.Agent().ServiceDeregister(serviceID); err != nil {
			logg.Warn("failed to deregister from Consul", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("server forced to shutdown", "error", err)
	}

	logg.Info("Athena API stopped")
}

func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("athena")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/athena")
	}

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Warning: config file not found, using defaults and environment variables")
	}
}

func buildCache(ctx context.Context, cfg *config.Config, logg *logger.Logger) (cache.Cache, error) {
	if cfg.Cache.Backend == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Host:     cfg.Cache.Redis.Host,
			Port:     cfg.Cache.Redis.Port,
			Password: cfg.Cache.Redis.Password,
			Database: cfg.Cache.Redis.Database,
		}, cfg.Cache.DefaultTTL)
		if err != nil {
			return nil, err
		}
		logg.Info("using Redis response cache", "host", cfg.Cache.Redis.Host)
		return redisCache, nil
	}

	return cache.NewMemoryCache(cfg.Traversal.NodeCacheSize, cfg.Cache.DefaultTTL)
}

func registerConsul(cfg *config.Config) (*consulapi.Client, string, error) {
	consulConfig := consulapi.DefaultConfig()
	consulConfig.Address = fmt.Sprintf("%s:%d", cfg.Consul.Host, cfg.Consul.Port)

	client, err := consulapi.NewClient(consulConfig)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Consul client: %w", err)
	}

	hostname := os.Getenv("SERVICE_HOSTNAME")
	if hostname == "" {
		hostname, err = os.Hostname()
		if err != nil {
			hostname = serviceName
		}
	}

	serviceID := fmt.Sprintf("%s-%s", serviceName, hostname)

	registration := &consulapi.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: hostname,
		Port:    cfg.Server.Port,
		Tags:    []string{"http", "graph", "drug-intelligence"},
		Check: &consulapi.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", hostname, cfg.Server.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}

	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, "", fmt.Errorf("failed to register service: %w", err)
	}

	return client, serviceID, nil
}

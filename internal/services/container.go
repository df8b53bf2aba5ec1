package services

import (
	"context"
	"fmt"

	"github.com/nexconsult/cnpj-enricher/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds all service dependencies
type Container struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client

	LookupClient *BrasilAPIClient
	Pipeline     *Pipeline
	JobStore     *JobStore
}

// NewContainer creates a new service container
func NewContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	container := &Container{
		config: cfg,
		logger: logger,
	}

	container.initRedis(ctx)
	container.initServices()

	return container, nil
}

// initRedis connects to Redis when enabled. A failed ping leaves the
// container running on the in-memory job store.
func (c *Container) initRedis(ctx context.Context) {
	if !c.config.Redis.Enabled {
		c.logger.Info("Redis disabled, job state kept in memory")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:         c.config.RedisAddr(),
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, job state kept in memory")
		_ = client.Close()
		return
	}

	c.logger.WithField("addr", c.config.RedisAddr()).Info("Redis connection established")
	c.redisClient = client
}

// initServices initializes all services
func (c *Container) initServices() {
	c.JobStore = NewJobStore(c.redisClient, c.config.Jobs.TTL, c.logger)
	c.LookupClient = NewBrasilAPIClient(c.config.Lookup, nil, c.logger)
	c.Pipeline = NewPipeline(c.LookupClient, c.config.Lookup.PacingDelay, c.logger)
}

// Close closes all service connections
func (c *Container) Close() error {
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.JobStore != nil {
		health["job_store"] = c.JobStore.Health()
	}

	if c.LookupClient != nil {
		health["lookup"] = c.LookupClient.Health()
	}

	if c.Pipeline != nil {
		health["pipeline"] = map[string]interface{}{
			"status": "healthy",
			"state":  c.Pipeline.State().String(),
		}
	}

	return health
}

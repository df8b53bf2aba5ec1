package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const jobKeyPrefix = "cnpj-enricher:job:"

// JobStore keeps job snapshots in Redis, falling back to process memory when
// Redis is not configured or not reachable. Snapshots are stored as JSON in
// both backends so readers never share memory with the worker.
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger

	memStore map[string]storedJob
	memMutex sync.RWMutex
}

type storedJob struct {
	value     []byte
	expiresAt time.Time
}

// NewJobStore creates a new job store. client may be nil.
func NewJobStore(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *JobStore {
	return &JobStore{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		memStore: make(map[string]storedJob),
	}
}

// Save stores a job snapshot
func (s *JobStore) Save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}

	key := jobKeyPrefix + job.ID
	if s.client != nil {
		err := s.client.Set(ctx, key, data, s.ttl).Err()
		if err == nil {
			return nil
		}
		s.logger.WithFields(logrus.Fields{
			"job_id": job.ID,
			"error":  err.Error(),
		}).Warn("Redis set error, falling back to memory store")
	}

	s.memMutex.Lock()
	s.memStore[key] = storedJob{
		value:     data,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.memMutex.Unlock()

	return nil
}

// Get retrieves a job snapshot
func (s *JobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	key := jobKeyPrefix + id

	if s.client != nil {
		val, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			return decodeJob(val)
		}
		if !errors.Is(err, redis.Nil) {
			s.logger.WithFields(logrus.Fields{
				"job_id": id,
				"error":  err.Error(),
			}).Warn("Redis get error, falling back to memory store")
		}
	}

	s.memMutex.RLock()
	item, exists := s.memStore[key]
	s.memMutex.RUnlock()

	if !exists {
		return nil, ErrJobNotFound
	}

	if time.Now().After(item.expiresAt) {
		s.memMutex.Lock()
		delete(s.memStore, key)
		s.memMutex.Unlock()
		return nil, ErrJobNotFound
	}

	return decodeJob(item.value)
}

// Delete removes a job snapshot from both backends
func (s *JobStore) Delete(ctx context.Context, id string) error {
	key := jobKeyPrefix + id

	if s.client != nil {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			s.logger.WithFields(logrus.Fields{
				"job_id": id,
				"error":  err.Error(),
			}).Warn("Redis delete error")
		}
	}

	s.memMutex.Lock()
	delete(s.memStore, key)
	s.memMutex.Unlock()

	return nil
}

// Health returns job store health status
func (s *JobStore) Health() map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
	}

	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx).Err(); err != nil {
			health["status"] = "degraded"
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	s.memMutex.RLock()
	health["memory_jobs"] = len(s.memStore)
	s.memMutex.RUnlock()

	return health
}

// cleanupExpired removes expired snapshots from memory
func (s *JobStore) cleanupExpired() {
	s.memMutex.Lock()
	defer s.memMutex.Unlock()

	now := time.Now()
	for key, item := range s.memStore {
		if now.After(item.expiresAt) {
			delete(s.memStore, key)
		}
	}
}

// StartCleanupRoutine periodically drops expired memory snapshots until ctx ends
func (s *JobStore) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func decodeJob(data []byte) (*models.Job, error) {
	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

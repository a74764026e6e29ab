package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fixflow/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Organization lookup caching
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	SetOrganization(ctx context.Context, org *models.Organization, ttl time.Duration) error
	InvalidateOrganization(ctx context.Context, id uuid.UUID) error

	// Monthly SMS usage counters (calendar-month buckets)
	IncrementSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error)
	GetSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error)

	// Rate limiting for public endpoints (invitation acceptance, login)
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	// Ping is used by the readiness probe.
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis:// URLs as well as bare host:port
	addr = strings.TrimPrefix(addr, "redis://")

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

func orgKey(id uuid.UUID) string {
	return fmt.Sprintf("org:%s", id)
}

func smsKey(organizationID uuid.UUID, monthBucket string) string {
	return fmt.Sprintf("org:%s:sms:%s", organizationID, monthBucket)
}

func (s *redisCacheService) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	data, err := s.client.Get(ctx, orgKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	org := &models.Organization{}
	if err := json.Unmarshal([]byte(data), org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *redisCacheService) SetOrganization(ctx context.Context, org *models.Organization, ttl time.Duration) error {
	data, err := json.Marshal(org)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, orgKey(org.ID), data, ttl).Err()
}

func (s *redisCacheService) InvalidateOrganization(ctx context.Context, id uuid.UUID) error {
	return s.client.Del(ctx, orgKey(id)).Err()
}

// IncrementSMSCount bumps the organization's counter for the month.
// Keys expire after ~62 days so stale buckets clean themselves up.
func (s *redisCacheService) IncrementSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error) {
	key := smsKey(organizationID, monthBucket)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		s.client.Expire(ctx, key, 62*24*time.Hour)
	}
	return count, nil
}

func (s *redisCacheService) GetSMSCount(ctx context.Context, organizationID uuid.UUID, monthBucket string) (int64, error) {
	count, err := s.client.Get(ctx, smsKey(organizationID, monthBucket)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

func (s *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	full := fmt.Sprintf("ratelimit:%s", key)
	count, err := s.client.Incr(ctx, full).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		s.client.Expire(ctx, full, window)
	}
	return count > int64(limit), nil
}

func (s *redisCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisCacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

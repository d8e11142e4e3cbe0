// Package cache keeps public patient records in Redis so repeated
// certificate views skip the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vaccert/vaccination-server/internal/models"
)

const (
	keyPatient    = "vaccert:patient:slug:%s"
	keyPatientGen = "vaccert:patient:gen:%s"

	DefaultTTL = 10 * time.Minute

	// genTTL must outlast any in-flight fill
	genTTL = 24 * time.Hour
)

// Connect parses a redis:// URL and checks the server answers
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RecordCache stores patient records keyed by slug
type RecordCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRecordCache(rdb *redis.Client, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RecordCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached record for slug, or nil on a miss, together with
// the slug's current generation. Pass the generation to Fill.
func (c *RecordCache) Get(ctx context.Context, slug string) (*models.Patient, int64, error) {
	vals, err := c.rdb.MGet(ctx, key(slug), genKey(slug)).Result()
	if err != nil {
		return nil, 0, err
	}

	var gen int64
	if s, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, 0, fmt.Errorf("corrupt cache generation for %s: %w", slug, err)
		}
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, gen, nil
	}

	var patient models.Patient
	if err := json.Unmarshal([]byte(data), &patient); err != nil {
		// drop entries written by an incompatible version
		if err := c.rdb.Del(ctx, key(slug)).Err(); err != nil {
			return nil, 0, fmt.Errorf("failed to drop corrupt cache entry for %s: %w", slug, err)
		}
		return nil, gen, nil
	}
	return &patient, gen, nil
}

// Fill caches patient unless its slug was invalidated after gen was read.
// A lost race is not an error.
func (c *RecordCache) Fill(ctx context.Context, patient *models.Patient, gen int64) error {
	data, err := json.Marshal(patient)
	if err != nil {
		return err
	}

	gk := genKey(patient.Slug)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, gk).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(patient.Slug), data, c.ttl)
			return nil
		})
		return err
	}, gk)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate drops the cached record and bumps the slug's generation so
// fills started before the change are discarded
func (c *RecordCache) Invalidate(ctx context.Context, slug string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey(slug))
		pipe.Expire(ctx, genKey(slug), genTTL)
		pipe.Del(ctx, key(slug))
		return nil
	})
	return err
}

func key(slug string) string {
	return fmt.Sprintf(keyPatient, slug)
}

func genKey(slug string) string {
	return fmt.Sprintf(keyPatientGen, slug)
}

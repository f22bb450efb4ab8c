package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/strukta/sitegate/role"
)

// ErrStoreUnavailable is returned when the backing Redis instance cannot be
// reached. Distinct from [ErrUnknownSubject] so callers never confuse an
// outage with a missing account.
var ErrStoreUnavailable = errors.New("identity store unavailable")

const (
	fieldRole    = "role"
	fieldActive  = "active"
	fieldCompany = "company"
)

// RedisStore reads subject records from a Redis hash per subject:
//
//	HSET <prefix>:subject:<id> role <role> active 0|1 company <company-id>
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a store using the given key prefix ("sg" when
// empty).
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "sg"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(subjectID string) string {
	return s.prefix + ":subject:" + subjectID
}

// Lookup implements [Store].
func (s *RedisStore) Lookup(ctx context.Context, subjectID string) (Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key(subjectID)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrUnknownSubject
	}

	r, ok := fields[fieldRole]
	if !ok || r == "" {
		return Record{}, fmt.Errorf("%w: record for %s has no role", ErrUnknownSubject, subjectID)
	}

	return Record{
		Role:      role.ID(r),
		IsActive:  fields[fieldActive] == "1",
		CompanyID: fields[fieldCompany],
	}, nil
}

// Seed writes a subject record. Intended for provisioning flows and tests.
func (s *RedisStore) Seed(ctx context.Context, subjectID string, record Record) error {
	active := "0"
	if record.IsActive {
		active = "1"
	}
	err := s.client.HSet(ctx, s.key(subjectID),
		fieldRole, string(record.Role),
		fieldActive, active,
		fieldCompany, record.CompanyID,
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

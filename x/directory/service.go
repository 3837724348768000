// Package directory serves group membership lookups. Membership is owned by
// the host environment and ingested through the admin endpoints; GroupsOf
// reads go through a short-lived redis cache.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/namespaced/namespaced/core"
)

var tracer = otel.Tracer("directory")

const cacheTTL = 5 * time.Minute

// Service is the interface for the directory service
type Service interface {
	core.SubjectDirectory
	Upsert(ctx context.Context, group core.GroupRecord) (core.GroupRecord, error)
	Get(ctx context.Context, id string) (core.GroupRecord, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repository Repository
	rdb        *redis.Client
}

// NewService creates a new directory service
func NewService(repository Repository, rdb *redis.Client) Service {
	return &service{repository: repository, rdb: rdb}
}

func membershipCacheKey(userID string) string {
	return fmt.Sprintf("directory:groups:%s", userID)
}

// GroupsOf resolves the groups a user belongs to, cache first.
func (s *service) GroupsOf(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Directory.Service.GroupsOf")
	defer span.End()

	cached, err := s.rdb.Get(ctx, membershipCacheKey(userID)).Result()
	if err == nil {
		var groups []string
		err = json.Unmarshal([]byte(cached), &groups)
		if err == nil {
			return groups, nil
		}
		span.RecordError(err)
	}

	groups, err := s.repository.GroupsOf(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if groups == nil {
		groups = []string{}
	}

	encoded, err := json.Marshal(groups)
	if err == nil {
		err = s.rdb.Set(ctx, membershipCacheKey(userID), string(encoded), cacheTTL).Err()
		if err != nil {
			span.RecordError(err)
		}
	}

	return groups, nil
}

// Upsert replaces a group's member list and drops the membership cache for
// everyone the change touches, old members included.
func (s *service) Upsert(ctx context.Context, group core.GroupRecord) (core.GroupRecord, error) {
	ctx, span := tracer.Start(ctx, "Directory.Service.Upsert")
	defer span.End()

	stale := map[string]bool{}
	prev, err := s.repository.Get(ctx, group.ID)
	if err == nil {
		for _, member := range prev.Members {
			stale[member] = true
		}
	} else if !errors.Is(err, core.ErrorNotFound{}) {
		span.RecordError(err)
		return core.GroupRecord{}, err
	}
	for _, member := range group.Members {
		stale[member] = true
	}

	created, err := s.repository.Upsert(ctx, group)
	if err != nil {
		span.RecordError(err)
		return core.GroupRecord{}, err
	}

	s.invalidate(ctx, stale)

	return created, nil
}

func (s *service) Get(ctx context.Context, id string) (core.GroupRecord, error) {
	ctx, span := tracer.Start(ctx, "Directory.Service.Get")
	defer span.End()

	return s.repository.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Directory.Service.Delete")
	defer span.End()

	stale := map[string]bool{}
	prev, err := s.repository.Get(ctx, id)
	if err == nil {
		for _, member := range prev.Members {
			stale[member] = true
		}
	}

	err = s.repository.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidate(ctx, stale)

	return nil
}

func (s *service) invalidate(ctx context.Context, users map[string]bool) {
	for user := range users {
		s.rdb.Del(ctx, membershipCacheKey(user))
	}
}

package directory

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/namespaced/namespaced/core"
)

// Repository is the interface for the group membership store
type Repository interface {
	Upsert(ctx context.Context, group core.GroupRecord) (core.GroupRecord, error)
	Get(ctx context.Context, id string) (core.GroupRecord, error)
	Delete(ctx context.Context, id string) error
	GroupsOf(ctx context.Context, userID string) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new directory repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Upsert(ctx context.Context, group core.GroupRecord) (core.GroupRecord, error) {
	ctx, span := tracer.Start(ctx, "Directory.Repository.Upsert")
	defer span.End()

	err := r.db.WithContext(ctx).Save(&group).Error
	if err != nil {
		return core.GroupRecord{}, errors.Wrap(err, "failed to upsert group")
	}

	return group, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.GroupRecord, error) {
	ctx, span := tracer.Start(ctx, "Directory.Repository.Get")
	defer span.End()

	var group core.GroupRecord
	err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.GroupRecord{}, core.NewErrorNotFound()
		}
		return core.GroupRecord{}, errors.Wrap(err, "failed to get group")
	}

	return group, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Directory.Repository.Delete")
	defer span.End()

	result := r.db.WithContext(ctx).Delete(&core.GroupRecord{}, "id = ?", id)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete group")
	}
	if result.RowsAffected == 0 {
		return core.NewErrorNotFound()
	}

	return nil
}

// GroupsOf returns the IDs of every group the user is a member of. A user
// in no groups yields an empty slice, never an error.
func (r *repository) GroupsOf(ctx context.Context, userID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Directory.Repository.GroupsOf")
	defer span.End()

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&core.GroupRecord{}).
		Where("? = ANY(members)", userID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list groups of user")
	}

	return ids, nil
}

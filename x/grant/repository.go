package grant

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/namespaced/namespaced/core"
)

// Repository is the interface for the grant store
type Repository interface {
	Put(ctx context.Context, grant core.Grant) (core.Grant, error)
	Get(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject) (core.Grant, error)
	Delete(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject) error
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new grant repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Put writes the grant for its (namespace, scope, subject) triple,
// replacing any existing row in full. The single upsert statement is what
// serializes concurrent writes to the same triple: last committed wins,
// flags are never merged.
func (r *repository) Put(ctx context.Context, grant core.Grant) (core.Grant, error) {
	ctx, span := tracer.Start(ctx, "Grant.Repository.Put")
	defer span.End()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "namespace_id"},
			{Name: "scope"},
			{Name: "subject_kind"},
			{Name: "subject_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"has_create",
			"has_read",
			"has_update",
			"has_delete",
			"has_delegate",
			"m_date",
		}),
	}).Create(&grant).Error
	if err != nil {
		return core.Grant{}, errors.Wrap(err, "failed to put grant")
	}

	return grant, nil
}

func (r *repository) Get(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject) (core.Grant, error) {
	ctx, span := tracer.Start(ctx, "Grant.Repository.Get")
	defer span.End()

	var grant core.Grant
	err := r.db.WithContext(ctx).
		First(&grant, "namespace_id = ? AND scope = ? AND subject_kind = ? AND subject_id = ?",
			namespaceID, scope, subject.Kind, subject.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Grant{}, core.NewErrorNotFound()
		}
		return core.Grant{}, errors.Wrap(err, "failed to get grant")
	}

	return grant, nil
}

// Delete removes the grant row, returning the triple to default-deny.
func (r *repository) Delete(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject) error {
	ctx, span := tracer.Start(ctx, "Grant.Repository.Delete")
	defer span.End()

	result := r.db.WithContext(ctx).
		Where("namespace_id = ? AND scope = ? AND subject_kind = ? AND subject_id = ?",
			namespaceID, scope, subject.Kind, subject.ID).
		Delete(&core.Grant{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete grant")
	}
	if result.RowsAffected == 0 {
		return core.NewErrorNotFound()
	}

	return nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Grant.Repository.Count")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Grant{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count grants")
	}

	return count, nil
}

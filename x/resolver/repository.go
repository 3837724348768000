package resolver

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/namespaced/namespaced/core"
)

// Repository is the read-only grant lookup used by resolution
type Repository interface {
	CandidateGrants(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject, groups []string) ([]core.Grant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new resolver repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CandidateGrants returns every grant that can contribute to the subject's
// effective set for the (namespace, scope) pair: the direct grant plus one
// per supplied group. For a group subject only its own grant applies.
func (r *repository) CandidateGrants(ctx context.Context, namespaceID uint, scope core.Scope, subject core.Subject, groups []string) ([]core.Grant, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Repository.CandidateGrants")
	defer span.End()

	query := r.db.WithContext(ctx).
		Where("namespace_id = ? AND scope = ?", namespaceID, scope)

	if subject.Kind == core.SubjectGroup {
		query = query.Where("subject_kind = ? AND subject_id = ?", core.SubjectGroup, subject.ID)
	} else if len(groups) > 0 {
		query = query.Where(
			r.db.Where("subject_kind = ? AND subject_id = ?", core.SubjectUser, subject.ID).
				Or("subject_kind = ? AND subject_id IN ?", core.SubjectGroup, groups),
		)
	} else {
		query = query.Where("subject_kind = ? AND subject_id = ?", core.SubjectUser, subject.ID)
	}

	var grants []core.Grant
	err := query.Find(&grants).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect candidate grants")
	}

	return grants, nil
}

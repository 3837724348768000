package object

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/namespaced/namespaced/core"
)

// Repository is the interface for the object store
type Repository interface {
	Create(ctx context.Context, object core.NamespacedObject) (core.NamespacedObject, error)
	Get(ctx context.Context, id string) (core.NamespacedObject, error)
	Update(ctx context.Context, object core.NamespacedObject) (core.NamespacedObject, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, namespaceID uint) ([]core.NamespacedObject, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new object repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, object core.NamespacedObject) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Repository.Create")
	defer span.End()

	err := r.db.WithContext(ctx).Create(&object).Error
	if err != nil {
		return core.NamespacedObject{}, errors.Wrap(err, "failed to create object")
	}

	return object, nil
}

func (r *repository) Get(ctx context.Context, id string) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Repository.Get")
	defer span.End()

	var object core.NamespacedObject
	err := r.db.WithContext(ctx).First(&object, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NamespacedObject{}, core.NewErrorNotFound()
		}
		return core.NamespacedObject{}, errors.Wrap(err, "failed to get object")
	}

	return object, nil
}

func (r *repository) Update(ctx context.Context, object core.NamespacedObject) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Repository.Update")
	defer span.End()

	err := r.db.WithContext(ctx).Save(&object).Error
	if err != nil {
		return core.NamespacedObject{}, errors.Wrap(err, "failed to update object")
	}

	return object, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Object.Repository.Delete")
	defer span.End()

	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&core.NamespacedObject{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete object")
	}
	if result.RowsAffected == 0 {
		return core.NewErrorNotFound()
	}

	return nil
}

func (r *repository) List(ctx context.Context, namespaceID uint) ([]core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Repository.List")
	defer span.End()

	var objects []core.NamespacedObject
	err := r.db.WithContext(ctx).Where("namespace_id = ?", namespaceID).Find(&objects).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list objects")
	}

	return objects, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Object.Repository.Count")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.NamespacedObject{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count objects")
	}

	return count, nil
}

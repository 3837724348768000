package namespace

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/namespaced/namespaced/core"
)

// Repository is the interface for the namespace store
type Repository interface {
	Create(ctx context.Context, namespace core.Namespace, seed []core.Grant) (core.Namespace, error)
	GetByID(ctx context.Context, id uint) (core.Namespace, error)
	GetByName(ctx context.Context, name string) (core.Namespace, error)
	Update(ctx context.Context, namespace core.Namespace) (core.Namespace, error)
	DeleteCascade(ctx context.Context, id uint) error
	List(ctx context.Context) ([]core.Namespace, error)
	ListPermitted(ctx context.Context, userID string, groups []string) ([]core.Namespace, error)
	ListGrants(ctx context.Context, namespaceID uint) ([]core.Grant, error)
	Count(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewRepository creates a new namespace repository
func NewRepository(db *gorm.DB, mc *memcache.Client) Repository {
	return &repository{db: db, mc: mc}
}

func nameCacheKey(name string) string {
	return "namespace:name:" + name
}

// Create inserts the namespace and its seed grants in one transaction.
// The unique index on name is the conflict authority: concurrent creates of
// the same name race to the insert and the loser gets the violation, so
// there is no check-then-insert window.
func (r *repository) Create(ctx context.Context, namespace core.Namespace, seed []core.Grant) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.Create")
	defer span.End()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Create(&namespace).Error
		if err != nil {
			return err
		}

		for i := range seed {
			seed[i].NamespaceID = namespace.ID
			err = tx.Create(&seed[i]).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return core.Namespace{}, core.NewErrorAlreadyExists()
		}
		return core.Namespace{}, errors.Wrap(err, "failed to create namespace")
	}

	return namespace, nil
}

func (r *repository) GetByID(ctx context.Context, id uint) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.GetByID")
	defer span.End()

	var namespace core.Namespace
	err := r.db.WithContext(ctx).First(&namespace, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Namespace{}, core.NewErrorNotFound()
		}
		return core.Namespace{}, errors.Wrap(err, "failed to get namespace")
	}

	return namespace, nil
}

// GetByName resolves a name to its namespace, going through the memcached
// name-to-id mapping first. Names are immutable over the API, so the entry
// only has to be dropped on delete.
func (r *repository) GetByName(ctx context.Context, name string) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.GetByName")
	defer span.End()

	item, err := r.mc.Get(nameCacheKey(name))
	if err == nil {
		id, err := strconv.ParseUint(string(item.Value), 10, 64)
		if err == nil {
			return r.GetByID(ctx, uint(id))
		}
		span.RecordError(err)
	}

	var namespace core.Namespace
	err = r.db.WithContext(ctx).First(&namespace, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Namespace{}, core.NewErrorNotFound()
		}
		return core.Namespace{}, errors.Wrap(err, "failed to get namespace")
	}

	err = r.mc.Set(&memcache.Item{Key: nameCacheKey(name), Value: []byte(fmt.Sprintf("%d", namespace.ID))})
	if err != nil {
		span.RecordError(err)
	}

	return namespace, nil
}

func (r *repository) Update(ctx context.Context, namespace core.Namespace) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.Update")
	defer span.End()

	err := r.db.WithContext(ctx).Save(&namespace).Error
	if err != nil {
		return core.Namespace{}, errors.Wrap(err, "failed to update namespace")
	}

	return namespace, nil
}

// DeleteCascade removes the namespace, every object it owns, and every
// grant that references it as one transaction. Readers either see the
// namespace fully intact or fully gone; a failure rolls everything back.
func (r *repository) DeleteCascade(ctx context.Context, id uint) error {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.DeleteCascade")
	defer span.End()

	var name string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var namespace core.Namespace
		err := tx.First(&namespace, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return core.NewErrorNotFound()
			}
			return err
		}
		name = namespace.Name

		err = tx.Where("namespace_id = ?", id).Delete(&core.NamespacedObject{}).Error
		if err != nil {
			return err
		}

		err = tx.Where("namespace_id = ?", id).Delete(&core.Grant{}).Error
		if err != nil {
			return err
		}

		return tx.Delete(&core.Namespace{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, core.ErrorNotFound{}) {
			return err
		}
		return errors.Wrap(err, "failed to cascade delete namespace")
	}

	err = r.mc.Delete(nameCacheKey(name))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		span.RecordError(err)
	}

	return nil
}

func (r *repository) List(ctx context.Context) ([]core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.List")
	defer span.End()

	var namespaces []core.Namespace
	err := r.db.WithContext(ctx).Find(&namespaces).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list namespaces")
	}

	return namespaces, nil
}

// ListPermitted returns the namespaces where the user holds namespace-scope
// read, directly or through one of the supplied groups.
func (r *repository) ListPermitted(ctx context.Context, userID string, groups []string) ([]core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.ListPermitted")
	defer span.End()

	permitted := r.db.Model(&core.Grant{}).
		Select("namespace_id").
		Where("scope = ? AND has_read = true", core.ScopeNamespace)

	if len(groups) > 0 {
		permitted = permitted.Where(
			r.db.Where("subject_kind = ? AND subject_id = ?", core.SubjectUser, userID).
				Or("subject_kind = ? AND subject_id IN ?", core.SubjectGroup, groups),
		)
	} else {
		permitted = permitted.Where("subject_kind = ? AND subject_id = ?", core.SubjectUser, userID)
	}

	var namespaces []core.Namespace
	err := r.db.WithContext(ctx).Where("id IN (?)", permitted).Find(&namespaces).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list permitted namespaces")
	}

	return namespaces, nil
}

func (r *repository) ListGrants(ctx context.Context, namespaceID uint) ([]core.Grant, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.ListGrants")
	defer span.End()

	var grants []core.Grant
	err := r.db.WithContext(ctx).Where("namespace_id = ?", namespaceID).Find(&grants).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list grants")
	}

	return grants, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Repository.Count")
	defer span.End()

	var count int64
	err := r.db.WithContext(ctx).Model(&core.Namespace{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count namespaces")
	}

	return count, nil
}

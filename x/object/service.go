// Package object manages the resources living inside a namespace. The
// document payload is opaque; every operation is gated on the requester's
// effective object-scope flags in the owning namespace.
package object

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/namespace"
)

var tracer = otel.Tracer("object")

// Service is the interface for the object service
type Service interface {
	Create(ctx context.Context, requester string, idOrName string, document string) (core.NamespacedObject, error)
	Get(ctx context.Context, requester string, idOrName string, objectID string) (core.NamespacedObject, error)
	List(ctx context.Context, requester string, idOrName string) ([]core.NamespacedObject, error)
	Update(ctx context.Context, requester string, idOrName string, objectID string, document string) (core.NamespacedObject, error)
	Delete(ctx context.Context, requester string, idOrName string, objectID string) error
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
	namespace  namespace.Service
	resolver   core.Resolver
}

// NewService creates a new object service
func NewService(repository Repository, namespace namespace.Service, resolver core.Resolver) Service {
	return &service{
		repository: repository,
		namespace:  namespace,
		resolver:   resolver,
	}
}

// gate resolves the namespace and checks the requester's object-scope
// capability for the action in one step.
func (s *service) gate(ctx context.Context, requester string, idOrName string, action core.FlagSet) (core.Namespace, error) {
	ns, err := s.namespace.Lookup(ctx, idOrName)
	if err != nil {
		return core.Namespace{}, err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, ns.ID, core.ScopeObject, action)
	if err != nil {
		return core.Namespace{}, err
	}
	if !ok {
		return core.Namespace{}, core.NewErrorPermissionDenied()
	}

	return ns, nil
}

func (s *service) Create(ctx context.Context, requester string, idOrName string, document string) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Service.Create")
	defer span.End()

	if document == "" {
		document = "{}"
	}
	if !json.Valid([]byte(document)) {
		return core.NamespacedObject{}, errors.WithMessage(core.NewErrorInvalidRequest(), "document must be valid json")
	}

	ns, err := s.gate(ctx, requester, idOrName, core.FlagCreate)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}

	created, err := s.repository.Create(ctx, core.NamespacedObject{
		ID:          xid.New().String(),
		NamespaceID: ns.ID,
		Document:    document,
	})
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}

	return created, nil
}

func (s *service) Get(ctx context.Context, requester string, idOrName string, objectID string) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Service.Get")
	defer span.End()

	ns, err := s.gate(ctx, requester, idOrName, core.FlagRead)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}

	object, err := s.repository.Get(ctx, objectID)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}
	// an object reached through the wrong namespace does not exist
	if object.NamespaceID != ns.ID {
		return core.NamespacedObject{}, core.NewErrorNotFound()
	}

	return object, nil
}

func (s *service) List(ctx context.Context, requester string, idOrName string) ([]core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Service.List")
	defer span.End()

	ns, err := s.gate(ctx, requester, idOrName, core.FlagRead)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return s.repository.List(ctx, ns.ID)
}

func (s *service) Update(ctx context.Context, requester string, idOrName string, objectID string, document string) (core.NamespacedObject, error) {
	ctx, span := tracer.Start(ctx, "Object.Service.Update")
	defer span.End()

	if !json.Valid([]byte(document)) {
		return core.NamespacedObject{}, errors.WithMessage(core.NewErrorInvalidRequest(), "document must be valid json")
	}

	ns, err := s.gate(ctx, requester, idOrName, core.FlagUpdate)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}

	object, err := s.repository.Get(ctx, objectID)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}
	if object.NamespaceID != ns.ID {
		return core.NamespacedObject{}, core.NewErrorNotFound()
	}

	object.Document = document

	updated, err := s.repository.Update(ctx, object)
	if err != nil {
		span.RecordError(err)
		return core.NamespacedObject{}, err
	}

	return updated, nil
}

func (s *service) Delete(ctx context.Context, requester string, idOrName string, objectID string) error {
	ctx, span := tracer.Start(ctx, "Object.Service.Delete")
	defer span.End()

	ns, err := s.gate(ctx, requester, idOrName, core.FlagDelete)
	if err != nil {
		span.RecordError(err)
		return err
	}

	object, err := s.repository.Get(ctx, objectID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if object.NamespaceID != ns.ID {
		return core.NewErrorNotFound()
	}

	return s.repository.Delete(ctx, object.ID)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Object.Service.Count")
	defer span.End()

	return s.repository.Count(ctx)
}

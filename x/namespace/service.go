// Package namespace manages the namespace lifecycle. Deleting a namespace
// is destructive and unrecoverable: the cascade removes every contained
// object and every grant in the same transaction.
package namespace

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/namespaced/namespaced/core"
)

var tracer = otel.Tracer("namespace")

// Detail is the read representation: the record plus its direct grants,
// split by scope. Grant lists are not group-expanded.
type Detail struct {
	core.Namespace
	NamespacePermissions core.PermissionSummary `json:"namespace_permissions"`
	ObjectPermissions    core.PermissionSummary `json:"object_permissions"`
}

// Service is the interface for the namespace service
type Service interface {
	Create(ctx context.Context, requester string, name string, description string) (core.Namespace, error)
	Lookup(ctx context.Context, idOrName string) (core.Namespace, error)
	Get(ctx context.Context, requester string, idOrName string) (Detail, error)
	List(ctx context.Context, requester string) ([]core.Namespace, error)
	Update(ctx context.Context, requester string, idOrName string, description *string) (core.Namespace, error)
	Delete(ctx context.Context, requester string, idOrName string) error
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
	resolver   core.Resolver
	directory  core.SubjectDirectory
	publisher  core.Publisher
}

// NewService creates a new namespace service
func NewService(repository Repository, resolver core.Resolver, directory core.SubjectDirectory, publisher core.Publisher) Service {
	return &service{
		repository: repository,
		resolver:   resolver,
		directory:  directory,
		publisher:  publisher,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) < 0
}

// Create makes a new namespace and seeds the creator with the full flag set
// on both scopes, so every fresh namespace has a delegate from the start.
func (s *service) Create(ctx context.Context, requester string, name string, description string) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Create")
	defer span.End()

	if name == "" {
		return core.Namespace{}, errors.WithMessage(core.NewErrorInvalidRequest(), "name is required")
	}
	// a purely numeric name would be shadowed by id lookup
	if isNumeric(name) {
		return core.Namespace{}, errors.WithMessage(core.NewErrorInvalidRequest(), "name must not be numeric")
	}

	nsGrant := core.Grant{Scope: core.ScopeNamespace, SubjectKind: core.SubjectUser, SubjectID: requester}
	nsGrant.SetFlags(core.ScopeNamespace.ValidFlags())
	objGrant := core.Grant{Scope: core.ScopeObject, SubjectKind: core.SubjectUser, SubjectID: requester}
	objGrant.SetFlags(core.ScopeObject.ValidFlags())

	created, err := s.repository.Create(ctx, core.Namespace{
		Name:        name,
		Description: description,
	}, []core.Grant{nsGrant, objGrant})
	if err != nil {
		span.RecordError(err)
		return core.Namespace{}, err
	}

	return created, nil
}

// Lookup resolves a path identifier: digits mean id, anything else the
// unique name. It performs no permission check; callers gate access.
func (s *service) Lookup(ctx context.Context, idOrName string) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Lookup")
	defer span.End()

	if isNumeric(idOrName) {
		id, err := strconv.ParseUint(idOrName, 10, 64)
		if err != nil {
			return core.Namespace{}, errors.WithMessage(core.NewErrorInvalidRequest(), "invalid namespace id")
		}
		return s.repository.GetByID(ctx, uint(id))
	}

	return s.repository.GetByName(ctx, idOrName)
}

// Get returns the namespace and its direct grant lists. Requires
// namespace-scope read.
func (s *service) Get(ctx context.Context, requester string, idOrName string) (Detail, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Get")
	defer span.End()

	namespace, err := s.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return Detail{}, err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, namespace.ID, core.ScopeNamespace, core.FlagRead)
	if err != nil {
		span.RecordError(err)
		return Detail{}, err
	}
	if !ok {
		return Detail{}, core.NewErrorPermissionDenied()
	}

	grants, err := s.repository.ListGrants(ctx, namespace.ID)
	if err != nil {
		span.RecordError(err)
		return Detail{}, err
	}

	var namespaceGrants, objectGrants []core.Grant
	for _, grant := range grants {
		if grant.Scope == core.ScopeNamespace {
			namespaceGrants = append(namespaceGrants, grant)
		} else {
			objectGrants = append(objectGrants, grant)
		}
	}

	return Detail{
		Namespace:            namespace,
		NamespacePermissions: core.SummarizeGrants(namespaceGrants),
		ObjectPermissions:    core.SummarizeGrants(objectGrants),
	}, nil
}

// List returns the namespaces the requester can read. Admins see all.
func (s *service) List(ctx context.Context, requester string) ([]core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.List")
	defer span.End()

	if s.resolver.IsAdmin(requester) {
		return s.repository.List(ctx)
	}

	groups, err := s.directory.GroupsOf(ctx, requester)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return s.repository.ListPermitted(ctx, requester, groups)
}

// Update changes the description. The name is immutable over the API.
func (s *service) Update(ctx context.Context, requester string, idOrName string, description *string) (core.Namespace, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Update")
	defer span.End()

	namespace, err := s.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return core.Namespace{}, err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, namespace.ID, core.ScopeNamespace, core.FlagUpdate)
	if err != nil {
		span.RecordError(err)
		return core.Namespace{}, err
	}
	if !ok {
		return core.Namespace{}, core.NewErrorPermissionDenied()
	}

	if description != nil {
		namespace.Description = *description
	}

	updated, err := s.repository.Update(ctx, namespace)
	if err != nil {
		span.RecordError(err)
		return core.Namespace{}, err
	}

	return updated, nil
}

// Delete cascades. There is no soft delete and no recovery.
func (s *service) Delete(ctx context.Context, requester string, idOrName string) error {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Delete")
	defer span.End()

	namespace, err := s.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, namespace.ID, core.ScopeNamespace, core.FlagDelete)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !ok {
		return core.NewErrorPermissionDenied()
	}

	err = s.repository.DeleteCascade(ctx, namespace.ID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = s.publisher.Publish(ctx, core.Event{
		Type:      "namespace.delete",
		Namespace: namespace.ID,
		Timestamp: time.Now(),
	})
	if err != nil {
		span.RecordError(err)
	}

	return nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Namespace.Service.Count")
	defer span.End()

	return s.repository.Count(ctx)
}

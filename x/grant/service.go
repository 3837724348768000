// Package grant manages permission grants. Grant mutation is itself a
// guarded capability: only subjects holding namespace-scope delegate may
// put or revoke grants, and a put replaces the stored flag set wholesale.
package grant

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/x/namespace"
)

var tracer = otel.Tracer("grant")

// Service is the interface for the grant service
type Service interface {
	Put(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject, flags map[string]bool) (core.Grant, error)
	Revoke(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject) error
	GetEffective(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject) (map[string]bool, error)
	Count(ctx context.Context) (int64, error)
}

type service struct {
	repository Repository
	namespace  namespace.Service
	resolver   core.Resolver
	publisher  core.Publisher
}

// NewService creates a new grant service
func NewService(repository Repository, namespace namespace.Service, resolver core.Resolver, publisher core.Publisher) Service {
	return &service{
		repository: repository,
		namespace:  namespace,
		resolver:   resolver,
		publisher:  publisher,
	}
}

// Put writes the grant for (namespace, scope, subject), replacing any
// existing flags. The requester must hold namespace-scope delegate.
func (s *service) Put(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject, flags map[string]bool) (core.Grant, error) {
	ctx, span := tracer.Start(ctx, "Grant.Service.Put")
	defer span.End()

	set, err := core.ParseFlagMap(scope, flags)
	if err != nil {
		span.RecordError(err)
		return core.Grant{}, err
	}
	if set == core.FlagsNone {
		return core.Grant{}, errors.WithMessage(core.NewErrorInvalidRequest(), "at least one flag must be set; use revoke to remove a grant")
	}

	ns, err := s.namespace.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return core.Grant{}, err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, ns.ID, core.ScopeNamespace, core.FlagDelegate)
	if err != nil {
		span.RecordError(err)
		return core.Grant{}, err
	}
	if !ok {
		return core.Grant{}, core.NewErrorPermissionDenied()
	}

	grant := core.Grant{
		NamespaceID: ns.ID,
		Scope:       scope,
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
	}
	grant.SetFlags(set)

	written, err := s.repository.Put(ctx, grant)
	if err != nil {
		span.RecordError(err)
		return core.Grant{}, err
	}

	err = s.publisher.Publish(ctx, core.Event{
		Type:      "grant.put",
		Namespace: ns.ID,
		Scope:     scope,
		Subject:   &subject,
		Flags:     set.Map(scope),
		Timestamp: time.Now(),
	})
	if err != nil {
		span.RecordError(err)
	}

	return written, nil
}

// Revoke removes the grant row entirely. Revoking a grant that does not
// exist is a not-found, so callers can tell a no-op from a removal.
func (s *service) Revoke(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject) error {
	ctx, span := tracer.Start(ctx, "Grant.Service.Revoke")
	defer span.End()

	ns, err := s.namespace.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return err
	}

	ok, err := s.resolver.CanPerform(ctx, requester, ns.ID, core.ScopeNamespace, core.FlagDelegate)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !ok {
		return core.NewErrorPermissionDenied()
	}

	err = s.repository.Delete(ctx, ns.ID, scope, subject)
	if err != nil {
		span.RecordError(err)
		return err
	}

	err = s.publisher.Publish(ctx, core.Event{
		Type:      "grant.revoke",
		Namespace: ns.ID,
		Scope:     scope,
		Subject:   &subject,
		Timestamp: time.Now(),
	})
	if err != nil {
		span.RecordError(err)
	}

	return nil
}

// GetEffective returns the subject's effective flag map, groups included.
// A user may always inspect their own standing; inspecting anyone else
// requires namespace-scope delegate.
func (s *service) GetEffective(ctx context.Context, requester string, idOrName string, scope core.Scope, subject core.Subject) (map[string]bool, error) {
	ctx, span := tracer.Start(ctx, "Grant.Service.GetEffective")
	defer span.End()

	ns, err := s.namespace.Lookup(ctx, idOrName)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	selfView := subject.Kind == core.SubjectUser && subject.ID == requester
	if !selfView {
		ok, err := s.resolver.CanPerform(ctx, requester, ns.ID, core.ScopeNamespace, core.FlagDelegate)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if !ok {
			return nil, core.NewErrorPermissionDenied()
		}
	}

	effective, err := s.resolver.Resolve(ctx, subject, ns.ID, scope)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return effective.Map(scope), nil
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Grant.Service.Count")
	defer span.End()

	return s.repository.Count(ctx)
}

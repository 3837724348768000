// Package resolver computes effective permissions: the union of a subject's
// direct grant and every grant held by a group the subject belongs to.
package resolver

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/exp/slices"

	"github.com/namespaced/namespaced/core"
)

var tracer = otel.Tracer("resolver")

type service struct {
	repository Repository
	directory  core.SubjectDirectory
	config     core.Config
}

// NewService creates a new resolver service
func NewService(repository Repository, directory core.SubjectDirectory, config core.Config) core.Resolver {
	return &service{
		repository: repository,
		directory:  directory,
		config:     config,
	}
}

// Resolve computes the effective flag set. Contributions are purely
// additive: a flag is effective when any candidate grant sets it, and no
// grant can mask a flag granted by another. No grants means no flags.
func (s *service) Resolve(ctx context.Context, subject core.Subject, namespaceID uint, scope core.Scope) (core.FlagSet, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Service.Resolve")
	defer span.End()

	var groups []string
	if subject.Kind == core.SubjectUser {
		var err error
		groups, err = s.directory.GroupsOf(ctx, subject.ID)
		if err != nil {
			span.RecordError(err)
			return core.FlagsNone, err
		}
	}

	grants, err := s.repository.CandidateGrants(ctx, namespaceID, scope, subject, groups)
	if err != nil {
		span.RecordError(err)
		return core.FlagsNone, err
	}

	effective := core.FlagsNone
	for _, grant := range grants {
		effective |= grant.Flags()
	}

	span.SetAttributes(attribute.StringSlice("effective", effective.Names()))

	return effective, nil
}

// CanPerform checks a requester against the effective union. Update and
// delete demand read as well, and read may come from a different grant than
// the action itself. Admins pass unconditionally.
func (s *service) CanPerform(ctx context.Context, requester string, namespaceID uint, scope core.Scope, action core.FlagSet) (bool, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Service.CanPerform")
	defer span.End()

	if s.IsAdmin(requester) {
		return true, nil
	}

	effective, err := s.Resolve(ctx, core.User(requester), namespaceID, scope)
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	return effective.Has(core.RequiredFor(action)), nil
}

// IsAdmin reports whether the requester is on the configured admin list.
func (s *service) IsAdmin(requester string) bool {
	return requester != "" && slices.Contains(s.config.Admins, requester)
}

package grant

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/internal/testutil"
	mock_directory "github.com/namespaced/namespaced/x/directory/mock"
	"github.com/namespaced/namespaced/x/namespace"
	"github.com/namespaced/namespaced/x/resolver"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []core.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestService(t *testing.T) {

	var ctx = context.Background()

	db, cleanup_db := testutil.CreateDB()
	defer cleanup_db()

	mc, cleanup_mc := testutil.CreateMC()
	defer cleanup_mc()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDirectory := mock_directory.NewMockSubjectDirectory(ctrl)
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), "u-carol").Return([]string{"g-admins"}, nil).AnyTimes()
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), gomock.Any()).Return([]string{}, nil).AnyTimes()

	publisher := &capturePublisher{}

	resolverService := resolver.NewService(resolver.NewRepository(db), mockDirectory, core.Config{})
	namespaceService := namespace.NewService(namespace.NewRepository(db, mc), resolverService, mockDirectory, publisher)
	test_service := NewService(NewRepository(db), namespaceService, resolverService, publisher)

	ns, err := namespaceService.Create(ctx, "u-owner", "projects", "")
	assert.NoError(t, err)

	t.Run("put without delegate is refused", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-peon", "projects", core.ScopeObject, core.User("u-alice"),
			map[string]bool{"has_read": true})
		assert.ErrorIs(t, err, core.ErrorPermissionDenied{})
	})

	t.Run("creator holds delegate and can put", func(t *testing.T) {
		written, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-alice"),
			map[string]bool{"has_read": true, "has_update": true})
		assert.NoError(t, err)
		assert.Equal(t, core.FlagRead|core.FlagUpdate, written.Flags())
	})

	t.Run("put replaces flags instead of merging", func(t *testing.T) {
		written, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-alice"),
			map[string]bool{"has_create": true})
		assert.NoError(t, err)
		assert.Equal(t, core.FlagCreate, written.Flags())

		var rows []core.Grant
		err = db.Where("namespace_id = ? AND subject_id = ?", ns.ID, "u-alice").Find(&rows).Error
		assert.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, core.FlagCreate, rows[0].Flags())
	})

	t.Run("flag not valid for scope is rejected", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeNamespace, core.User("u-alice"),
			map[string]bool{"has_create": true})
		assert.ErrorIs(t, err, core.ErrorInvalidRequest{})
	})

	t.Run("all-false put is rejected", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-alice"),
			map[string]bool{"has_read": false})
		assert.ErrorIs(t, err, core.ErrorInvalidRequest{})
	})

	t.Run("revoke removes one scope and leaves the other", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeNamespace, core.User("u-bob"),
			map[string]bool{"has_read": true})
		assert.NoError(t, err)
		_, err = test_service.Put(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-bob"),
			map[string]bool{"has_read": true})
		assert.NoError(t, err)

		err = test_service.Revoke(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-bob"))
		assert.NoError(t, err)

		effective, err := resolverService.Resolve(ctx, core.User("u-bob"), ns.ID, core.ScopeObject)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagsNone, effective)

		effective, err = resolverService.Resolve(ctx, core.User("u-bob"), ns.ID, core.ScopeNamespace)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagRead, effective)
	})

	t.Run("revoking an absent grant is a not-found", func(t *testing.T) {
		err := test_service.Revoke(ctx, "u-owner", "projects", core.ScopeObject, core.User("u-bob"))
		assert.ErrorIs(t, err, core.ErrorNotFound{})
	})

	t.Run("delegate held through a group allows mutation", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-owner", "projects", core.ScopeNamespace, core.Group("g-admins"),
			map[string]bool{"has_delegate": true})
		assert.NoError(t, err)

		// carol is in g-admins, so she may now hand out grants herself
		_, err = test_service.Put(ctx, "u-carol", "projects", core.ScopeObject, core.User("u-dave"),
			map[string]bool{"has_read": true})
		assert.NoError(t, err)
	})

	t.Run("self view needs no delegate", func(t *testing.T) {
		effective, err := test_service.GetEffective(ctx, "u-dave", "projects", core.ScopeObject, core.User("u-dave"))
		assert.NoError(t, err)
		assert.True(t, effective["has_read"])
		assert.False(t, effective["has_update"])
	})

	t.Run("viewing another subject requires delegate", func(t *testing.T) {
		_, err := test_service.GetEffective(ctx, "u-dave", "projects", core.ScopeObject, core.User("u-alice"))
		assert.ErrorIs(t, err, core.ErrorPermissionDenied{})

		effective, err := test_service.GetEffective(ctx, "u-carol", "projects", core.ScopeObject, core.User("u-alice"))
		assert.NoError(t, err)
		assert.True(t, effective["has_create"])
	})

	t.Run("mutations are published", func(t *testing.T) {
		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		var types []string
		for _, event := range publisher.events {
			types = append(types, event.Type)
		}
		assert.Contains(t, types, "grant.put")
		assert.Contains(t, types, "grant.revoke")
	})

	t.Run("unknown namespace is a not-found", func(t *testing.T) {
		_, err := test_service.Put(ctx, "u-owner", "no-such-namespace", core.ScopeObject, core.User("u-alice"),
			map[string]bool{"has_read": true})
		assert.ErrorIs(t, err, core.ErrorNotFound{})
	})
}

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/internal/testutil"
	mock_directory "github.com/namespaced/namespaced/x/directory/mock"
)

func TestService(t *testing.T) {

	var ctx = context.Background()

	db, cleanup_db := testutil.CreateDB()
	defer cleanup_db()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDirectory := mock_directory.NewMockSubjectDirectory(ctrl)
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), "u-alice").Return([]string{"g-readers", "g-writers"}, nil).AnyTimes()
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), "u-bob").Return([]string{"g-readers"}, nil).AnyTimes()
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), gomock.Any()).Return([]string{}, nil).AnyTimes()

	test_repo := NewRepository(db)
	test_service := NewService(test_repo, mockDirectory, core.Config{Admins: []string{"u-root"}})

	ns := core.Namespace{Name: "ns1"}
	err := db.Create(&ns).Error
	assert.NoError(t, err)

	// group A carries read, group B carries update; neither alone suffices
	readers := core.Grant{NamespaceID: ns.ID, Scope: core.ScopeNamespace, SubjectKind: core.SubjectGroup, SubjectID: "g-readers"}
	readers.SetFlags(core.FlagRead)
	assert.NoError(t, db.Create(&readers).Error)

	writers := core.Grant{NamespaceID: ns.ID, Scope: core.ScopeNamespace, SubjectKind: core.SubjectGroup, SubjectID: "g-writers"}
	writers.SetFlags(core.FlagUpdate)
	assert.NoError(t, db.Create(&writers).Error)

	t.Run("additive union across grants", func(t *testing.T) {
		effective, err := test_service.Resolve(ctx, core.User("u-alice"), ns.ID, core.ScopeNamespace)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagRead|core.FlagUpdate, effective)
	})

	t.Run("cross-grant combination satisfies update", func(t *testing.T) {
		ok, err := test_service.CanPerform(ctx, "u-alice", ns.ID, core.ScopeNamespace, core.FlagUpdate)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("update without read is refused", func(t *testing.T) {
		// bob is only in g-readers; grant him a direct update-only grant
		direct := core.Grant{NamespaceID: ns.ID, Scope: core.ScopeObject, SubjectKind: core.SubjectUser, SubjectID: "u-bob"}
		direct.SetFlags(core.FlagUpdate)
		assert.NoError(t, db.Create(&direct).Error)

		effective, err := test_service.Resolve(ctx, core.User("u-bob"), ns.ID, core.ScopeObject)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagUpdate, effective)

		ok, err := test_service.CanPerform(ctx, "u-bob", ns.ID, core.ScopeObject, core.FlagUpdate)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("default deny", func(t *testing.T) {
		effective, err := test_service.Resolve(ctx, core.User("u-nobody"), ns.ID, core.ScopeNamespace)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagsNone, effective)

		ok, err := test_service.CanPerform(ctx, "u-nobody", ns.ID, core.ScopeNamespace, core.FlagRead)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("scopes are isolated", func(t *testing.T) {
		effective, err := test_service.Resolve(ctx, core.User("u-alice"), ns.ID, core.ScopeObject)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagsNone, effective)
	})

	t.Run("group subject resolves only its own grant", func(t *testing.T) {
		effective, err := test_service.Resolve(ctx, core.Group("g-readers"), ns.ID, core.ScopeNamespace)
		assert.NoError(t, err)
		assert.Equal(t, core.FlagRead, effective)
	})

	t.Run("admin bypasses every check", func(t *testing.T) {
		ok, err := test_service.CanPerform(ctx, "u-root", ns.ID, core.ScopeNamespace, core.FlagDelete)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, test_service.IsAdmin("u-root"))
		assert.False(t, test_service.IsAdmin("u-alice"))
	})
}

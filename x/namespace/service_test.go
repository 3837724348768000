package namespace

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/namespaced/namespaced/core"
	"github.com/namespaced/namespaced/internal/testutil"
	mock_directory "github.com/namespaced/namespaced/x/directory/mock"
	"github.com/namespaced/namespaced/x/resolver"
)

type nullPublisher struct{}

func (p nullPublisher) Publish(ctx context.Context, event core.Event) error {
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
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), "u-member").Return([]string{"g-staff"}, nil).AnyTimes()
	mockDirectory.EXPECT().GroupsOf(gomock.Any(), gomock.Any()).Return([]string{}, nil).AnyTimes()

	resolverService := resolver.NewService(resolver.NewRepository(db), mockDirectory, core.Config{Admins: []string{"u-root"}})
	test_service := NewService(NewRepository(db, mc), resolverService, mockDirectory, nullPublisher{})

	t.Run("create seeds the creator with the full flag set", func(t *testing.T) {
		created, err := test_service.Create(ctx, "u-owner", "wiki", "shared pages")
		assert.NoError(t, err)
		assert.NotZero(t, created.ID)

		effective, err := resolverService.Resolve(ctx, core.User("u-owner"), created.ID, core.ScopeNamespace)
		assert.NoError(t, err)
		assert.Equal(t, core.ScopeNamespace.ValidFlags(), effective)

		effective, err = resolverService.Resolve(ctx, core.User("u-owner"), created.ID, core.ScopeObject)
		assert.NoError(t, err)
		assert.Equal(t, core.ScopeObject.ValidFlags(), effective)
	})

	t.Run("name conflicts are rejected", func(t *testing.T) {
		_, err := test_service.Create(ctx, "u-other", "wiki", "")
		assert.ErrorIs(t, err, core.ErrorAlreadyExists{})
	})

	t.Run("numeric and empty names are rejected", func(t *testing.T) {
		_, err := test_service.Create(ctx, "u-owner", "12345", "")
		assert.ErrorIs(t, err, core.ErrorInvalidRequest{})

		_, err = test_service.Create(ctx, "u-owner", "", "")
		assert.ErrorIs(t, err, core.ErrorInvalidRequest{})
	})

	t.Run("lookup resolves both id and name", func(t *testing.T) {
		byName, err := test_service.Lookup(ctx, "wiki")
		assert.NoError(t, err)

		byID, err := test_service.Lookup(ctx, strconv.FormatUint(uint64(byName.ID), 10))
		assert.NoError(t, err)
		assert.Equal(t, byName.ID, byID.ID)

		// second name lookup is served through the cache
		cached, err := test_service.Lookup(ctx, "wiki")
		assert.NoError(t, err)
		assert.Equal(t, byName.ID, cached.ID)

		_, err = test_service.Lookup(ctx, "missing")
		assert.ErrorIs(t, err, core.ErrorNotFound{})
	})

	t.Run("get requires namespace read", func(t *testing.T) {
		_, err := test_service.Get(ctx, "u-stranger", "wiki")
		assert.ErrorIs(t, err, core.ErrorPermissionDenied{})

		detail, err := test_service.Get(ctx, "u-owner", "wiki")
		assert.NoError(t, err)
		assert.Equal(t, "wiki", detail.Name)
		assert.Contains(t, detail.NamespacePermissions.Users, "u-owner")
		assert.Contains(t, detail.ObjectPermissions.Users, "u-owner")
	})

	t.Run("update is gated and changes only the description", func(t *testing.T) {
		description := "team pages"
		_, err := test_service.Update(ctx, "u-stranger", "wiki", &description)
		assert.ErrorIs(t, err, core.ErrorPermissionDenied{})

		updated, err := test_service.Update(ctx, "u-owner", "wiki", &description)
		assert.NoError(t, err)
		assert.Equal(t, "team pages", updated.Description)
		assert.Equal(t, "wiki", updated.Name)
	})

	t.Run("list is filtered by readability", func(t *testing.T) {
		other, err := test_service.Create(ctx, "u-owner", "internal", "")
		assert.NoError(t, err)

		// staff can read "internal" through their group
		staff := core.Grant{NamespaceID: other.ID, Scope: core.ScopeNamespace, SubjectKind: core.SubjectGroup, SubjectID: "g-staff"}
		staff.SetFlags(core.FlagRead)
		assert.NoError(t, db.Create(&staff).Error)

		visible, err := test_service.List(ctx, "u-member")
		assert.NoError(t, err)
		assert.Len(t, visible, 1)
		assert.Equal(t, "internal", visible[0].Name)

		visible, err = test_service.List(ctx, "u-stranger")
		assert.NoError(t, err)
		assert.Len(t, visible, 0)

		visible, err = test_service.List(ctx, "u-root")
		assert.NoError(t, err)
		assert.Len(t, visible, 2)
	})

	t.Run("delete cascades to objects and grants", func(t *testing.T) {
		doomed, err := test_service.Create(ctx, "u-owner", "scratch", "")
		assert.NoError(t, err)

		object := core.NamespacedObject{ID: "obj00000000000000001", NamespaceID: doomed.ID, Document: `{"k":"v"}`}
		assert.NoError(t, db.Create(&object).Error)

		err = test_service.Delete(ctx, "u-stranger", "scratch")
		assert.ErrorIs(t, err, core.ErrorPermissionDenied{})

		err = test_service.Delete(ctx, "u-owner", "scratch")
		assert.NoError(t, err)

		var namespaces, grants, objects int64
		assert.NoError(t, db.Model(&core.Namespace{}).Where("id = ?", doomed.ID).Count(&namespaces).Error)
		assert.NoError(t, db.Model(&core.Grant{}).Where("namespace_id = ?", doomed.ID).Count(&grants).Error)
		assert.NoError(t, db.Model(&core.NamespacedObject{}).Where("namespace_id = ?", doomed.ID).Count(&objects).Error)
		assert.Zero(t, namespaces)
		assert.Zero(t, grants)
		assert.Zero(t, objects)

		_, err = test_service.Lookup(ctx, "scratch")
		assert.ErrorIs(t, err, core.ErrorNotFound{})
	})

	t.Run("failed cascade leaves every record in place", func(t *testing.T) {
		vault, err := test_service.Create(ctx, "u-owner", "vault", "")
		assert.NoError(t, err)

		object := core.NamespacedObject{ID: "obj00000000000000002", NamespaceID: vault.ID, Document: `{"k":"v"}`}
		assert.NoError(t, db.Create(&object).Error)

		// refuse the namespace row deletion, which is the last statement of
		// the cascade, so the objects and grants were already gone inside
		// the transaction when it fails
		assert.NoError(t, db.Exec(`CREATE OR REPLACE FUNCTION refuse_delete() RETURNS trigger AS $$ BEGIN RAISE EXCEPTION 'refused'; END; $$ LANGUAGE plpgsql`).Error)
		assert.NoError(t, db.Exec(`CREATE TRIGGER refuse_namespace_delete BEFORE DELETE ON namespaces FOR EACH ROW EXECUTE FUNCTION refuse_delete()`).Error)
		defer func() {
			assert.NoError(t, db.Exec(`DROP TRIGGER refuse_namespace_delete ON namespaces`).Error)
		}()

		err = test_service.Delete(ctx, "u-owner", "vault")
		assert.Error(t, err)

		var namespaces, grants, objects int64
		assert.NoError(t, db.Model(&core.Namespace{}).Where("id = ?", vault.ID).Count(&namespaces).Error)
		assert.NoError(t, db.Model(&core.Grant{}).Where("namespace_id = ?", vault.ID).Count(&grants).Error)
		assert.NoError(t, db.Model(&core.NamespacedObject{}).Where("namespace_id = ?", vault.ID).Count(&objects).Error)
		assert.EqualValues(t, 1, namespaces)
		assert.EqualValues(t, 2, grants)
		assert.EqualValues(t, 1, objects)

		found, err := test_service.Lookup(ctx, "vault")
		assert.NoError(t, err)
		assert.Equal(t, vault.ID, found.ID)
	})
}

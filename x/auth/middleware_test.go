package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/namespaced/namespaced/core"
)

func testContext(t *testing.T, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReceiveGatewayAuthPropagation(t *testing.T) {
	service := NewService(core.Config{Admins: []string{"root"}})

	c, _ := testContext(t, map[string]string{RequesterIdHeader: "alice"})
	err := service.ReceiveGatewayAuthPropagation(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	assert.NoError(t, err)
	assert.Equal(t, "alice", c.Get(RequesterIdCtxKey))
	assert.Nil(t, c.Get(RequesterIsAdminCtxKey))

	c, _ = testContext(t, map[string]string{RequesterIdHeader: "root"})
	err = service.ReceiveGatewayAuthPropagation(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
	assert.NoError(t, err)
	assert.Equal(t, true, c.Get(RequesterIsAdminCtxKey))
}

func TestRestrict(t *testing.T) {
	service := NewService(core.Config{Admins: []string{"root"}})

	handler := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	// anonymous requester is rejected by ISKNOWN
	c, rec := testContext(t, nil)
	err := service.Restrict(ISKNOWN)(handler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// known requester passes ISKNOWN but not ISADMIN
	c, rec = testContext(t, nil)
	c.Set(RequesterIdCtxKey, "alice")
	err = service.Restrict(ISKNOWN)(handler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = testContext(t, nil)
	c.Set(RequesterIdCtxKey, "alice")
	err = service.Restrict(ISADMIN)(handler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = testContext(t, nil)
	c.Set(RequesterIdCtxKey, "root")
	c.Set(RequesterIsAdminCtxKey, true)
	err = service.Restrict(ISADMIN)(handler)(c)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

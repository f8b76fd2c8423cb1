package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"assetd/internal/db"
	"assetd/internal/models"
	"assetd/internal/policy"
	"assetd/internal/store"
)

type testApp struct {
	router http.Handler
	store  *store.Store
	gdb    *gorm.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx, gdb))
	require.NoError(t, db.Seed(ctx, gdb))

	st := store.New(gdb)
	h, err := New(st, nil, Options{SessionTTL: time.Hour})
	require.NoError(t, err)

	return &testApp{router: h.Routes(), store: st, gdb: gdb}
}

func (app *testApp) user(t *testing.T, username string, superuser, manager bool) (models.User, *http.Cookie) {
	t.Helper()
	ctx := context.Background()

	user, err := app.store.CreateUser(ctx, username, username, "hunter22", superuser)
	require.NoError(t, err)
	if manager {
		require.NoError(t, app.store.AddUserToGroup(ctx, username, policy.ManagersGroup))
	}
	user, err = app.store.GetUser(ctx, user.ID)
	require.NoError(t, err)

	session, err := app.store.CreateSession(ctx, user, time.Hour)
	require.NoError(t, err)

	return user, &http.Cookie{Name: sessionCookie, Value: session.Token}
}

func (app *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) post(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	return rec
}

func assetForm(name, category string, status models.AssetStatus) url.Values {
	return url.Values{
		"name":     {name},
		"category": {category},
		"status":   {string(status)},
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/", "/asset/create/", "/asset/0c9d2f86-45a1-4c63-9f58-0f1f4ab62d10/"} {
		rec := app.get(path, nil)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, "/login", rec.Header().Get("Location"), path)
	}
}

func TestLoginLogoutFlow(t *testing.T) {
	app := newTestApp(t)
	_, err := app.store.CreateUser(context.Background(), "mike", "Mike", "hunter22", false)
	require.NoError(t, err)

	rec := app.post("/login", url.Values{"username": {"mike"}, "password": {"wrong"}}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Wrong username or password")

	rec = app.post("/login", url.Values{"username": {"mike"}, "password": {"hunter22"}}, nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "login must set the session cookie")
	require.NotEmpty(t, cookie.Value)

	rec = app.get("/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.post("/logout", nil, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = app.get("/", cookie)
	require.Equal(t, http.StatusFound, rec.Code, "revoked session must not authenticate")
}

func TestListShowsEmptyState(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.user(t, "uma", false, false)

	rec := app.get("/", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "No assets match")
}

func TestCreateAssetFlow(t *testing.T) {
	app := newTestApp(t)
	mike, cookie := app.user(t, "mike", false, true)

	form := assetForm("Dell Laptop", "Electronics", models.StatusOperational)
	form.Set("attr-0-name", "Serial Number")
	form.Set("attr-0-value", "SN-1")

	rec := app.post("/asset/create/", form, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	assets, err := app.store.ListAssets(context.Background(), mike, store.Filter{Category: "Electronics"})
	require.NoError(t, err)
	require.Len(t, assets, 1)

	detail := app.get("/asset/"+assets[0].ID.String()+"/", cookie)
	require.Equal(t, http.StatusOK, detail.Code)
	require.Contains(t, detail.Body.String(), "Serial Number")
}

func TestCreateAssetValidationError(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.user(t, "mike", false, true)

	rec := app.post("/asset/create/", assetForm("", "Electronics", models.StatusOperational), cookie)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "name is required")

	var count int64
	require.NoError(t, app.gdb.Model(&models.Asset{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateForbiddenForPlainUser(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.user(t, "uma", false, false)

	rec := app.get("/asset/create/", cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.post("/asset/create/", assetForm("Dell Laptop", "", models.StatusOperational), cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDetailForbiddenNotHidden(t *testing.T) {
	// An unauthorized user gets a 403 for an existing asset, not a 404:
	// detail access is refused, while list visibility is pruned.
	app := newTestApp(t)
	mike, _ := app.user(t, "mike", false, true)
	_, umaCookie := app.user(t, "uma", false, false)

	asset, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{Name: "Secret Server"})
	require.NoError(t, err)

	rec := app.get("/asset/"+asset.ID.String()+"/", umaCookie)
	require.Equal(t, http.StatusForbidden, rec.Code)

	list := app.get("/?search=Secret", umaCookie)
	require.Equal(t, http.StatusOK, list.Code)
	require.NotContains(t, list.Body.String(), "Secret Server")
}

func TestDetailUnknownIDIs404(t *testing.T) {
	app := newTestApp(t)
	_, cookie := app.user(t, "mike", false, true)

	rec := app.get("/asset/0c9d2f86-45a1-4c63-9f58-0f1f4ab62d10/", cookie)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.get("/asset/not-a-uuid/", cookie)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditValidationKeepsStoreUnchanged(t *testing.T) {
	app := newTestApp(t)
	mike, cookie := app.user(t, "mike", false, true)

	asset, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{Name: "Printer", Category: "Office"})
	require.NoError(t, err)

	rec := app.post("/asset/"+asset.ID.String()+"/edit/", assetForm("", "Office", models.StatusOperational), cookie)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	unchanged, err := app.store.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	require.Equal(t, "Printer", unchanged.Name)
}

func TestEditAssetFlow(t *testing.T) {
	app := newTestApp(t)
	mike, cookie := app.user(t, "mike", false, true)

	asset, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{Name: "Printer"})
	require.NoError(t, err)

	form := assetForm("Office Printer", "Office", models.StatusOutForRepairs)
	rec := app.post("/asset/"+asset.ID.String()+"/edit/", form, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	updated, err := app.store.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	require.Equal(t, "Office Printer", updated.Name)
	require.Equal(t, models.StatusOutForRepairs, updated.Status)
}

func TestDeleteAssetFlow(t *testing.T) {
	app := newTestApp(t)
	mike, cookie := app.user(t, "mike", false, true)

	asset, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{
		Name:       "Server",
		Attributes: []store.AttributeInput{{Name: "Rack", Value: "R2"}},
	})
	require.NoError(t, err)

	confirm := app.get("/asset/"+asset.ID.String()+"/delete/", cookie)
	require.Equal(t, http.StatusOK, confirm.Code)
	require.Contains(t, confirm.Body.String(), "Delete Server?")

	rec := app.post("/asset/"+asset.ID.String()+"/delete/", nil, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	_, err = app.store.GetAsset(context.Background(), asset.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	var count int64
	require.NoError(t, app.gdb.Model(&models.Attribute{}).Where("asset_id = ?", asset.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestDuplicateAssetFlow(t *testing.T) {
	app := newTestApp(t)
	mike, cookie := app.user(t, "mike", false, true)
	uma, _ := app.user(t, "uma", false, false)

	source, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{
		Name:         "Dell Laptop",
		Category:     "Electronics",
		AssignedToID: &uma.ID,
		Attributes:   []store.AttributeInput{{Name: "Serial Number", Value: "SN-1"}},
	})
	require.NoError(t, err)

	page := app.get("/asset/"+source.ID.String()+"/duplicate/", cookie)
	require.Equal(t, http.StatusOK, page.Code)
	require.Contains(t, page.Body.String(), "Dell Laptop (copy)")
	require.Contains(t, page.Body.String(), "SN-1")

	form := assetForm("Dell Laptop (copy)", "Electronics", models.StatusOperational)
	form.Set("assigned_to", uma.ID.String()) // ignored: duplicates start unassigned
	form.Set("attr-0-name", "Serial Number")
	form.Set("attr-0-value", "SN-1")

	rec := app.post("/asset/"+source.ID.String()+"/duplicate/", form, cookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	assets, err := app.store.ListAssets(context.Background(), mike, store.Filter{Search: "(copy)"})
	require.NoError(t, err)
	require.Len(t, assets, 1)

	copyAsset, err := app.store.GetAsset(context.Background(), assets[0].ID)
	require.NoError(t, err)
	require.Nil(t, copyAsset.AssignedToID)
	require.Len(t, copyAsset.Attributes, 1)
	require.Equal(t, "Serial Number", copyAsset.Attributes[0].Name)
}

func TestAssignAssetFlow(t *testing.T) {
	app := newTestApp(t)
	mike, _ := app.user(t, "mike", false, true)
	uma, umaCookie := app.user(t, "uma", false, false)

	asset, err := app.store.CreateAsset(context.Background(), mike, store.AssetInput{Name: "Badge Printer"})
	require.NoError(t, err)

	// Before assignment uma cannot see the asset.
	rec := app.get("/asset/"+asset.ID.String()+"/", umaCookie)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Assignment requires authentication only.
	rec = app.post("/asset/"+asset.ID.String()+"/assign/", url.Values{"user_id": {uma.ID.String()}}, umaCookie)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	assigned, err := app.store.GetAsset(context.Background(), asset.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedToID)
	require.Equal(t, uma.ID, *assigned.AssignedToID)
	require.Equal(t, models.StatusCheckedOut, assigned.Status)

	// Now the assignee can view the detail page.
	rec = app.get("/asset/"+asset.ID.String()+"/", umaCookie)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, app.get("/healthz", nil).Code)
	require.Equal(t, http.StatusOK, app.get("/readyz", nil).Code)
	require.Equal(t, http.StatusOK, app.get("/metrics", nil).Code)
}

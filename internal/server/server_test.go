package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/groceryguru/internal/auth"
	"github.com/dukerupert/groceryguru/internal/database"
	"github.com/dukerupert/groceryguru/internal/media"
	"github.com/dukerupert/groceryguru/internal/middleware"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01")

type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
	bearer string
}

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	disk, err := media.NewDisk(t.TempDir())
	require.NoError(t, err)
	tokens, err := auth.NewTokens("0123456789abcdef0123456789abcdef", time.Hour)
	require.NoError(t, err)

	if opts.SessionTTL == 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.MaxUpload == 0 {
		opts.MaxUpload = 1 << 20
	}
	if opts.AuthRateLimit == 0 {
		opts.AuthRateLimit = 100
	}
	opts.ImportTimeout = 5 * time.Second

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, disk, tokens, opts, logger).Router()
}

func (c *client) send(req *http.Request) *httptest.ResponseRecorder {
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func register(t *testing.T, h http.Handler, email string) *client {
	t.Helper()
	c := &client{t: t, h: h}
	rec := c.do("POST", "/api/register", map[string]string{
		"email": email, "name": "Tester", "password": "pantry-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.SessionCookieName {
			c.cookie = ck
		}
	}
	require.NotNil(t, c.cookie, "session cookie not set")
	return c
}

type outcome struct {
	Item struct {
		ID        int64   `json:"id"`
		Name      string  `json:"name"`
		Count     int     `json:"count"`
		Aisle     string  `json:"aisle"`
		ExpiresOn *string `json:"expires_on"`
		SourceID  *int64  `json:"source_list_item_id"`
	} `json:"item"`
	Merged bool `json:"merged"`
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Options{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	h := newTestServer(t, Options{})
	c := &client{t: t, h: h}

	for _, path := range []string{"/api/pantry", "/api/lists", "/api/recipes", "/api/me"} {
		rec := c.do("GET", path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRegisterSeedsDefaultList(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "Ann@Example.com")

	rec := c.do("GET", "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "ann@example.com", me["email"])
	assert.NotContains(t, me, "password_hash")

	rec = c.do("GET", "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	lists := decode[[]map[string]any](t, rec)
	require.Len(t, lists, 1)
	assert.Equal(t, "Grocery list", lists[0]["name"])
}

func TestRegisterAndLoginErrors(t *testing.T) {
	h := newTestServer(t, Options{})
	register(t, h, "ann@example.com")
	c := &client{t: t, h: h}

	rec := c.do("POST", "/api/register", map[string]string{"email": "ann@example.com", "password": "pantry-pass"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.do("POST", "/api/register", map[string]string{"email": "not-an-email", "password": "pantry-pass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do("POST", "/api/register", map[string]string{"email": "bo@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do("POST", "/api/login", map[string]string{"email": "ann@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = c.do("POST", "/api/login", map[string]string{"email": "ann@example.com", "password": "pantry-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBearerToken(t *testing.T) {
	h := newTestServer(t, Options{})
	register(t, h, "ann@example.com")

	c := &client{t: t, h: h}
	rec := c.do("POST", "/api/tokens", map[string]string{"email": "ann@example.com", "password": "pantry-pass"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tok := decode[map[string]any](t, rec)
	assert.Equal(t, "Bearer", tok["token_type"])

	c.bearer = tok["token"].(string)
	rec = c.do("GET", "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ann@example.com", decode[map[string]any](t, rec)["email"])
}

func TestLogout(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/logout", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.do("GET", "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRateLimit(t *testing.T) {
	h := newTestServer(t, Options{AuthRateLimit: 2, AuthRatePeriod: time.Minute})
	c := &client{t: t, h: h}

	creds := map[string]string{"email": "ann@example.com", "password": "pantry-pass"}
	for i := 0; i < 2; i++ {
		rec := c.do("POST", "/api/login", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := c.do("POST", "/api/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestPantryMergeOverHTTP(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/pantry", map[string]any{"name": "Milk", "count": 2, "expiration": "2025-03-15"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[outcome](t, rec)
	assert.False(t, first.Merged)
	assert.Equal(t, "Dairy", first.Item.Aisle)

	rec = c.do("POST", "/api/pantry", map[string]any{"name": "Milk", "count": "3", "expiration": "2025-03-15T08:00:00Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	second := decode[outcome](t, rec)
	assert.True(t, second.Merged)
	assert.Equal(t, first.Item.ID, second.Item.ID)
	assert.Equal(t, 5, second.Item.Count)

	rec = c.do("POST", "/api/pantry", map[string]any{"name": "Milk", "count": 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, decode[outcome](t, rec).Item.ExpiresOn)

	rec = c.do("GET", "/api/pantry", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestPantryValidation(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/pantry", map[string]any{"name": "Milk", "expiration": "next tuesday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "expiration")

	rec = c.do("POST", "/api/pantry", map[string]any{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.send(httptest.NewRequest("POST", "/api/pantry", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do("GET", "/api/pantry/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.do("GET", "/api/pantry", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestOwnershipOverHTTP(t *testing.T) {
	h := newTestServer(t, Options{})
	ann := register(t, h, "ann@example.com")
	bo := register(t, h, "bo@example.com")

	rec := ann.do("POST", "/api/pantry", map[string]any{"name": "Eggs", "count": 12})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[outcome](t, rec).Item.ID
	path := "/api/pantry/" + itoa(id)

	assert.Equal(t, http.StatusNotFound, bo.do("GET", path, nil).Code)
	assert.Equal(t, http.StatusNotFound, bo.do("PUT", path, map[string]any{"count": 1}).Code)
	assert.Equal(t, http.StatusNotFound, bo.do("DELETE", path, nil).Code)
	assert.JSONEq(t, `[]`, bo.do("GET", "/api/pantry", nil).Body.String())

	assert.Equal(t, http.StatusNoContent, ann.do("DELETE", path, nil).Code)
	assert.Equal(t, http.StatusNoContent, ann.do("DELETE", path, nil).Code)
	assert.Equal(t, http.StatusNotFound, ann.do("GET", path, nil).Code)
}

func TestListItemsAndMoveToPantry(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/list-items", map[string]any{"name": "Apples", "quantity": "0"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, "Grocery list", item["list_name"])
	id := int64(item["id"].(float64))

	rec = c.do("PUT", "/api/list-items/"+itoa(id), map[string]any{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, rec)["quantity"])

	rec = c.do("POST", "/api/list-items", map[string]any{"list": "Costco", "name": "Apples", "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do("GET", "/api/lists/Costco/items", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)

	rec = c.do("GET", "/api/lists/Nowhere/items", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = c.do("POST", "/api/list-items/"+itoa(id)+"/move-to-pantry", map[string]string{"expiration": "2025-04-01"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[outcome](t, rec)
	assert.Equal(t, 4, moved.Item.Count)
	require.NotNil(t, moved.Item.SourceID)
	assert.Equal(t, id, *moved.Item.SourceID)

	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/list-items/"+itoa(id), nil).Code)
	assert.JSONEq(t, `[]`, c.do("GET", "/api/lists/Grocery%20list/items", nil).Body.String())
}

func TestRecipesOverHTTP(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/recipes", map[string]string{"title": "Brownies", "category": "chocolate cake"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	r := decode[map[string]any](t, rec)
	assert.Equal(t, "Desserts", r["category"])
	id := itoa(int64(r["id"].(float64)))

	rec = c.do("POST", "/api/recipes", map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusBadRequest, c.do("PUT", "/api/recipes/"+id+"/rating", map[string]int{"rating": 6}).Code)
	rec = c.do("PUT", "/api/recipes/"+id+"/rating", map[string]int{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, rec)["average_rating"])

	rec = c.do("POST", "/api/recipes/"+id+"/comments", map[string]string{"body": "fudgy"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = c.do("GET", "/api/recipes/category/desserts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
	assert.JSONEq(t, `[]`, c.do("GET", "/api/recipes/category/Others", nil).Body.String())
	assert.Equal(t, http.StatusBadRequest, c.do("GET", "/api/recipes/category/Snacks", nil).Code)

	rec = c.do("GET", "/api/recipes/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode[map[string]any](t, rec)
	assert.Equal(t, float64(4), detail["my_rating"])
	assert.Len(t, detail["comments"], 1)
	assert.Len(t, detail["images"], 0)

	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/api/recipes/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/recipes/"+id, nil).Code)
}

func TestRecipeImageUpload(t *testing.T) {
	h := newTestServer(t, Options{})
	c := register(t, h, "ann@example.com")

	rec := c.do("POST", "/api/recipes", map[string]string{"title": "Pancakes"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := itoa(int64(decode[map[string]any](t, rec)["id"].(float64)))

	upload := func(data []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("image", "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest("POST", "/api/recipes/"+id+"/images", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return c.send(req)
	}

	rec = upload([]byte("plain text, not an image"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(pngBytes)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	imageID := itoa(int64(decode[map[string]any](t, rec)["id"].(float64)))

	rec = c.do("GET", "/api/recipes/"+id+"/images/"+imageID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	bo := register(t, h, "bo@example.com")
	assert.Equal(t, http.StatusNotFound, bo.do("GET", "/api/recipes/"+id+"/images/"+imageID, nil).Code)

	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/api/recipes/"+id+"/images/"+imageID, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do("GET", "/api/recipes/"+id+"/images/"+imageID, nil).Code)
	assert.Equal(t, http.StatusNoContent, c.do("DELETE", "/api/recipes/"+id+"/images/"+imageID, nil).Code)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

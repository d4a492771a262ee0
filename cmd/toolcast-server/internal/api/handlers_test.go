package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/adapters/memory"
	"github.com/coregx/toolcast/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	bus    *toolcast.EventBus
	repos  *memory.Repositories
}

// response is the union of SuccessResponse and ErrorResponse.
type response struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields"`
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := &toolcast.NoopLogger{}
	repos := memory.NewRepositories()
	bus := toolcast.NewEventBus(16, logger)
	t.Cleanup(bus.Close)

	catalog, err := toolcast.NewCatalogService(
		toolcast.WithCatalogRepository(repos.Catalog),
		toolcast.WithCatalogEvents(bus),
		toolcast.WithCatalogLogger(logger),
	)
	require.NoError(t, err)

	submissions, err := toolcast.NewSubmissionService(
		toolcast.WithSubmissionRepository(repos.Submission),
		toolcast.WithSubmissionLogger(logger),
	)
	require.NoError(t, err)

	reviews, err := toolcast.NewReviewService(
		toolcast.WithReviewRepository(repos.Review),
		toolcast.WithToolNameResolver(catalog),
		toolcast.WithReviewLogger(logger),
	)
	require.NoError(t, err)

	subscribers, err := toolcast.NewSubscriberManager(
		toolcast.WithSubscriberRepository(repos.Subscriber),
		toolcast.WithSubscriberManagerLogger(logger),
	)
	require.NoError(t, err)

	h := NewHandler(catalog, submissions, reviews, subscribers, bus, logger)
	return &testEnv{router: NewRouter(h), bus: bus, repos: repos}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func createItem(t *testing.T, env *testEnv, name string) model.CatalogItem {
	t.Helper()
	code, resp := env.do(t, http.MethodPost, "/api/v1/items", CreateItemRequest{
		Name:        name,
		Category:    "Developer Tools",
		Description: "Finds **bugs** early.",
		Link:        "https://" + name + ".example",
	})
	require.Equal(t, http.StatusCreated, code)
	return decode[model.CatalogItem](t, resp.Data)
}

func TestHandleHealth(t *testing.T) {
	env := setupTestServer(t)

	code, resp := env.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	health := decode[map[string]interface{}](t, resp.Data)
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 0, health["droppedEvents"])
}

func TestHandleCreateItem(t *testing.T) {
	env := setupTestServer(t)

	item := createItem(t, env, "linter")
	assert.Equal(t, model.ItemStatusPending, item.Status)
	assert.Equal(t, model.PricingFree, item.Pricing)
	assert.Equal(t, 1, env.bus.Pending(), "creation publishes one event")

	code, resp := env.do(t, http.MethodPost, "/api/v1/items", CreateItemRequest{Name: "broken", Category: "x", Link: "nope"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, toolcast.ErrCodeValidation, resp.Code)
	assert.Contains(t, resp.Fields, "link")
	assert.Equal(t, 1, env.bus.Pending())
}

func TestHandleItemLifecycle(t *testing.T) {
	env := setupTestServer(t)
	item := createItem(t, env, "linter")
	path := "/api/v1/items/" + itoa(item.ID)

	code, resp := env.do(t, http.MethodPut, path+"/status", StatusRequest{Status: "Featured"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, model.ItemStatusFeatured, decode[model.CatalogItem](t, resp.Data).Status)

	code, _ = env.do(t, http.MethodPut, path+"/status", StatusRequest{Status: "Archived"})
	assert.Equal(t, http.StatusBadRequest, code)

	yes := true
	code, resp = env.do(t, http.MethodPut, path+"/featured", FlagRequest{Value: &yes})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decode[model.CatalogItem](t, resp.Data).Featured)

	code, _ = env.do(t, http.MethodPut, path+"/featured", FlagRequest{})
	assert.Equal(t, http.StatusBadRequest, code)

	name := "Linter Pro"
	code, resp = env.do(t, http.MethodPatch, path, model.ItemUpdate{Name: &name})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Linter Pro", decode[model.CatalogItem](t, resp.Data).Name)

	code, resp = env.do(t, http.MethodGet, "/api/v1/items?featured=true", nil)
	require.Equal(t, http.StatusOK, code)
	page := decode[model.PageResult[model.CatalogItem]](t, resp.Data)
	assert.Equal(t, 1, page.Total)

	code, _ = env.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, code)

	code, resp = env.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, toolcast.ErrCodeNotFound, resp.Code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleSubmissions(t *testing.T) {
	env := setupTestServer(t)

	code, resp := env.do(t, http.MethodPost, "/api/v1/submissions", SubmitRequest{
		Name: "Formatter", URL: "https://fmt.example", Description: "Formats code", Category: "Developer Tools",
	})
	require.Equal(t, http.StatusCreated, code)
	sub := decode[model.Submission](t, resp.Data)
	assert.Equal(t, model.SubmissionStatusPending, sub.Status)
	assert.False(t, sub.Reviewed)

	path := "/api/v1/submissions/" + itoa(sub.ID) + "/status"
	code, resp = env.do(t, http.MethodPut, path, StatusRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, code)
	sub = decode[model.Submission](t, resp.Data)
	assert.Equal(t, model.SubmissionStatusApproved, sub.Status)
	assert.True(t, sub.Reviewed)

	code, resp = env.do(t, http.MethodPut, path, StatusRequest{Status: "pending"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[model.Submission](t, resp.Data).Reviewed)

	code, _ = env.do(t, http.MethodPut, path, StatusRequest{Status: "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPut, "/api/v1/submissions/404/status", StatusRequest{Status: "approved"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = env.do(t, http.MethodGet, "/api/v1/submissions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = env.do(t, http.MethodPost, "/api/v1/submissions", SubmitRequest{Name: "No URL"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Fields, "url")
}

func TestHandleReviews(t *testing.T) {
	env := setupTestServer(t)
	item := createItem(t, env, "linter")

	code, resp := env.do(t, http.MethodPost, "/api/v1/reviews", ReviewRequest{
		ToolID: itoa(item.ID), Rating: 5, AuthorName: "Ann", Comment: "Great",
	})
	require.Equal(t, http.StatusCreated, code)
	review := decode[model.Review](t, resp.Data)
	assert.Equal(t, item.Name, review.ToolName)

	code, resp = env.do(t, http.MethodPost, "/api/v1/reviews", ReviewRequest{
		ToolID: "missing", Rating: 3, AuthorName: "Bob", Comment: "Where is it?",
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, model.UnknownToolName, decode[model.Review](t, resp.Data).ToolName)

	code, resp = env.do(t, http.MethodPost, "/api/v1/reviews", ReviewRequest{
		ToolID: itoa(item.ID), Rating: 0, AuthorName: "Ann", Comment: "Zero",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Fields, "rating")

	helpful := "/api/v1/reviews/" + itoa(review.ID) + "/helpful"
	for i := 0; i < 3; i++ {
		code, resp = env.do(t, http.MethodPost, helpful, nil)
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 3, decode[model.Review](t, resp.Data).Helpful)

	code, _ = env.do(t, http.MethodPost, "/api/v1/reviews/999/helpful", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodGet, "/api/v1/reviews?toolId="+itoa(item.ID), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[model.PageResult[model.Review]](t, resp.Data).Total)
}

func TestHandleSubscribe(t *testing.T) {
	env := setupTestServer(t)

	for i := 0; i < 2; i++ {
		code, _ := env.do(t, http.MethodPost, "/api/v1/subscribe", EmailRequest{Email: "ann@example.com"})
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 1, env.repos.Subscriber.Len())

	code, resp := env.do(t, http.MethodGet, "/api/v1/subscribers/count", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, decode[map[string]int](t, resp.Data)["active"])

	code, _ = env.do(t, http.MethodPost, "/api/v1/subscribe", EmailRequest{Email: "nope"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = env.do(t, http.MethodPost, "/api/v1/unsubscribe", EmailRequest{Email: "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = env.do(t, http.MethodPost, "/api/v1/unsubscribe", EmailRequest{Email: "ann@example.com"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[model.Subscriber](t, resp.Data).IsActive)
}

func TestHandleInvalidJSON(t *testing.T) {
	env := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscribe", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotlabs/webops/pkg/browser"
	"github.com/pilotlabs/webops/pkg/discovery"
	"github.com/pilotlabs/webops/pkg/executor"
	"github.com/pilotlabs/webops/pkg/progress"
	"github.com/pilotlabs/webops/pkg/store"
	"github.com/pilotlabs/webops/pkg/types"
)

// stubDriver satisfies browser.Driver with canned responses; the server
// tests exercise HTTP semantics, not browser behavior.
type stubDriver struct {
	extractText string
}

func (d *stubDriver) Navigate(ctx context.Context, contextID, url string) error      { return nil }
func (d *stubDriver) Click(ctx context.Context, contextID, selector string) error    { return nil }
func (d *stubDriver) Type(ctx context.Context, contextID, selector, text string) error { return nil }
func (d *stubDriver) SelectOption(ctx context.Context, contextID, selector string, values []string) error {
	return nil
}
func (d *stubDriver) UploadFile(ctx context.Context, contextID, selector string, paths []string) error {
	return nil
}
func (d *stubDriver) WaitForSelector(ctx context.Context, contextID, selector string, timeoutMs float64) error {
	return nil
}
func (d *stubDriver) IsEnabled(ctx context.Context, contextID, selector string) (bool, error) {
	return true, nil
}
func (d *stubDriver) ExtractText(ctx context.Context, contextID, selector string) (string, error) {
	return d.extractText, nil
}
func (d *stubDriver) FindElement(ctx context.Context, contextID, description string) (browser.ElementMatch, error) {
	return browser.ElementMatch{}, nil
}
func (d *stubDriver) AnalyzePage(ctx context.Context, contextID, question string) (string, error) {
	return "", nil
}
func (d *stubDriver) QueryPage(ctx context.Context, contextID, question string, out interface{}) error {
	return nil
}
func (d *stubDriver) ExtractWithAI(ctx context.Context, contextID, selector, prompt string) (string, error) {
	return "", nil
}

func newTestServer(t *testing.T) (*Server, *store.Store, *executor.ExecutionQueue) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "webops.db"), "test-secret")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	driver := &stubDriver{extractText: "hello from svc"}
	hub := progress.NewHub()
	sink := progress.Multi(hub, progress.NewLogSink())

	queue := executor.NewExecutionQueue(executor.NewOperationExecutor(driver), st, sink)
	t.Cleanup(queue.Shutdown)

	pipeline := discovery.NewPipeline(driver, nil)
	return New(pipeline, queue, st, hub, sink), st, queue
}

func seedService(t *testing.T, st *store.Store, serviceID string) {
	t.Helper()
	require.NoError(t, st.SaveServiceConfig(context.Background(), &types.ServiceConfig{
		ServiceID: serviceID,
		URL:       "https://" + serviceID,
		Operations: map[string]*types.OperationStepProgram{
			"chat_completion": {
				ID: "chat_completion",
				Steps: []types.OperationStep{
					{Action: types.StepNavigate, URL: "https://" + serviceID},
					{Action: types.StepExtractResponse, Selector: "#out"},
				},
				ResponseExtraction: types.ResponseExtraction{
					Method:   types.ExtractText,
					Selector: "#out",
				},
			},
		},
	}))
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestListServices(t *testing.T) {
	srv, st, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/services", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"services":[]}`, rec.Body.String())

	seedService(t, st, "svc-1")
	rec = doJSON(t, srv, http.MethodGet, "/api/services", nil)
	assert.JSONEq(t, `{"services":["svc-1"]}`, rec.Body.String())
}

func TestGetServiceNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/services/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetService(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seedService(t, st, "svc-1")

	rec := doJSON(t, srv, http.MethodGet, "/api/services/svc-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var config types.ServiceConfig
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &config))
	assert.Equal(t, "svc-1", config.ServiceID)
	assert.NotNil(t, config.Operation("chat_completion"))
}

func TestExecuteUnknownServiceRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/services/ghost/execute", map[string]interface{}{
		"operation_id": "chat_completion",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteRunsTaskToCompletion(t *testing.T) {
	srv, st, queue := newTestServer(t)
	seedService(t, st, "svc-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/services/svc-1/execute", map[string]interface{}{
		"operation_id": "chat_completion",
		"parameters":   map[string]interface{}{"message": "hi"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var accepted struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.TaskID)

	require.Eventually(t, func() bool {
		task := queue.GetTaskStatus(accepted.TaskID)
		return task != nil && task.Status == types.TaskCompleted
	}, 2*time.Second, 5*time.Millisecond)

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+accepted.TaskID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var task types.ExecutionTask
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, types.TaskCompleted, task.Status)
	assert.Equal(t, "hello from svc", task.Result)
}

func TestExecuteMissingOperationIDRejected(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seedService(t, st, "svc-1")

	rec := doJSON(t, srv, http.MethodPost, "/api/services/svc-1/execute", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTaskNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/no-such-task", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStopQueue(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seedService(t, st, "svc-1")

	rec := doJSON(t, srv, http.MethodDelete, "/api/services/svc-1/queue", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteService(t *testing.T) {
	srv, st, _ := newTestServer(t)
	seedService(t, st, "svc-1")

	rec := doJSON(t, srv, http.MethodDelete, "/api/services/svc-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/services/svc-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDiscoverValidatesBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/services/svc-1/discover", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	importapp "github.com/frontdesk/backend/internal/application/importer"
	"github.com/frontdesk/backend/internal/domain/importer"
	"github.com/frontdesk/backend/internal/domain/integration"
	"github.com/frontdesk/backend/internal/domain/shared"
	"github.com/frontdesk/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// ---------------------------------------------------------------------------
// test doubles
// ---------------------------------------------------------------------------

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*importer.ImportTask
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[uuid.UUID]*importer.ImportTask)}
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*importer.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task, ok := r.tasks[id]; ok {
		return task, nil
	}
	return nil, shared.ErrNotFound
}

func (r *fakeTaskRepo) FindRunnable(ctx context.Context, filter importer.RunnableFilter) ([]*importer.ImportTask, error) {
	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var runnable []*importer.ImportTask
	for _, task := range r.tasks {
		if filter.OwnerID != nil && task.OwnerID != *filter.OwnerID {
			continue
		}
		if task.IsRunnable(now) {
			runnable = append(runnable, task)
		}
	}
	return runnable, nil
}

func (r *fakeTaskRepo) FindByOwnerAndConnection(ctx context.Context, ownerID, connectionID uuid.UUID) ([]*importer.ImportTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tasks []*importer.ImportTask
	for _, task := range r.tasks {
		if task.OwnerID == ownerID && task.ConnectionID == connectionID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].TaskType.Priority() < tasks[j].TaskType.Priority()
	})
	return tasks, nil
}

func (r *fakeTaskRepo) EnsureTasks(ctx context.Context, ownerID, connectionID uuid.UUID, maxRetries int) ([]*importer.ImportTask, error) {
	existing, _ := r.FindByOwnerAndConnection(ctx, ownerID, connectionID)
	byType := make(map[importer.TaskType]*importer.ImportTask, len(existing))
	for _, task := range existing {
		byType[task.TaskType] = task
	}

	var tasks []*importer.ImportTask
	for _, taskType := range importer.AllTaskTypes() {
		if task, ok := byType[taskType]; ok {
			tasks = append(tasks, task)
			continue
		}
		task, err := importer.NewImportTask(ownerID, connectionID, taskType, maxRetries)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.tasks[task.ID] = task
		r.mu.Unlock()
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *fakeTaskRepo) Save(ctx context.Context, task *importer.ImportTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return shared.ErrNotFound
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *fakeTaskRepo) IncrementRetry(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return 0, shared.ErrNotFound
	}
	task.RetryCount++
	return task.RetryCount, nil
}

func (r *fakeTaskRepo) ResetForReimport(ctx context.Context, ownerID, connectionID uuid.UUID) (int, error) {
	tasks, _ := r.FindByOwnerAndConnection(ctx, ownerID, connectionID)
	if len(tasks) == 0 {
		return 0, importer.ErrNoTasksFound
	}
	for _, task := range tasks {
		task.ResetForReimport()
	}
	return len(tasks), nil
}

func (r *fakeTaskRepo) FindStaleProcessing(ctx context.Context, cutoff time.Time) ([]*importer.ImportTask, error) {
	return nil, nil
}

var _ importer.TaskRepository = (*fakeTaskRepo)(nil)

type fakeProvider struct{}

func (p *fakeProvider) FetchMerchant(ctx context.Context, connectionID uuid.UUID) (*integration.MerchantInfo, error) {
	return &integration.MerchantInfo{BusinessName: "Luna Salon", Country: "US", Currency: "USD"}, nil
}

func (p *fakeProvider) FetchLocations(ctx context.Context, connectionID uuid.UUID) ([]integration.LocationInfo, error) {
	return []integration.LocationInfo{{Name: "Downtown"}}, nil
}

func (p *fakeProvider) FetchCatalog(ctx context.Context, connectionID uuid.UUID) (*integration.CatalogInfo, error) {
	return &integration.CatalogInfo{Services: []integration.ServiceInfo{{Name: "Shampoo"}}}, nil
}

type fakeSink struct{}

func (s *fakeSink) Apply(ctx context.Context, ownerID uuid.UUID, payload importer.Payload) error {
	return nil
}

type noopPublisher struct{}

func (p *noopPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
}

// ---------------------------------------------------------------------------
// fixture
// ---------------------------------------------------------------------------

type handlerFixture struct {
	engine *gin.Engine
	repo   *fakeTaskRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	repo := newFakeTaskRepo()
	orchestrator := importapp.NewOrchestrator(
		repo,
		&fakeProvider{},
		&fakeSink{},
		&noopPublisher{},
		importapp.OrchestratorConfig{RetryDelay: 0},
		zap.NewNop(),
	)
	reimports := importapp.NewReimportService(repo, 3, zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	NewImportHandler(orchestrator, reimports).RegisterRoutes(api)

	return &handlerFixture{engine: engine, repo: repo}
}

func (f *handlerFixture) request(t *testing.T, method, path, ownerID string, body any) *httptest.ResponseRecorder {
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
	if ownerID != "" {
		req.Header.Set(OwnerIDHeader, ownerID)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errInfo, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %s", rec.Body.String())
	return errInfo["code"].(string)
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestImportHandler_EnsureTasks(t *testing.T) {
	f := newHandlerFixture(t)
	ownerID := uuid.New().String()
	connectionID := uuid.New().String()

	t.Run("creates the three-task set", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/tasks", ownerID,
			gin.H{"connection_id": connectionID})

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		body := decodeBody(t, rec)
		tasks := body["data"].([]any)
		require.Len(t, tasks, 3)

		types := make([]string, 0, 3)
		for _, raw := range tasks {
			task := raw.(map[string]any)
			types = append(types, task["task_type"].(string))
			assert.Equal(t, "pending", task["status"])
		}
		assert.Equal(t, []string{"merchant", "locations", "catalog"}, types)
	})

	t.Run("is idempotent", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/tasks", ownerID,
			gin.H{"connection_id": connectionID})

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Len(t, decodeBody(t, rec)["data"].([]any), 3)
	})

	t.Run("requires owner header", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/tasks", "",
			gin.H{"connection_id": connectionID})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects malformed connection ID", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/tasks", ownerID,
			gin.H{"connection_id": "not-a-uuid"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportHandler_ListTasks(t *testing.T) {
	f := newHandlerFixture(t)
	ownerID := uuid.New().String()
	connectionID := uuid.New().String()

	rec := f.request(t, http.MethodPost, "/api/v1/imports/tasks", ownerID,
		gin.H{"connection_id": connectionID})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("returns tasks in priority order", func(t *testing.T) {
		rec := f.request(t, http.MethodGet,
			"/api/v1/imports/tasks?connection_id="+connectionID, ownerID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody(t, rec)["data"].([]any), 3)
	})

	t.Run("filters by task type", func(t *testing.T) {
		rec := f.request(t, http.MethodGet,
			"/api/v1/imports/tasks?connection_id="+connectionID+"&task_type=catalog", ownerID, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		tasks := decodeBody(t, rec)["data"].([]any)
		require.Len(t, tasks, 1)
		assert.Equal(t, "catalog", tasks[0].(map[string]any)["task_type"])
	})

	t.Run("rejects unknown task type", func(t *testing.T) {
		rec := f.request(t, http.MethodGet,
			"/api/v1/imports/tasks?connection_id="+connectionID+"&task_type=inventory", ownerID, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires connection filter", func(t *testing.T) {
		rec := f.request(t, http.MethodGet, "/api/v1/imports/tasks", ownerID, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportHandler_RunTask(t *testing.T) {
	f := newHandlerFixture(t)
	ownerID := uuid.New()
	connectionID := uuid.New()

	tasks, err := f.repo.EnsureTasks(context.Background(), ownerID, connectionID, 3)
	require.NoError(t, err)
	merchant := tasks[0]

	t.Run("runs a pending task to completion", func(t *testing.T) {
		rec := f.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/imports/tasks/%s/run", merchant.ID), ownerID.String(), nil)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		task := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, "completed", task["status"])
	})

	t.Run("completed task is not runnable", func(t *testing.T) {
		rec := f.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/imports/tasks/%s/run", merchant.ID), ownerID.String(), nil)

		require.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "TASK_NOT_RUNNABLE", errorCode(t, rec))
	})

	t.Run("unknown task returns 404", func(t *testing.T) {
		rec := f.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/imports/tasks/%s/run", uuid.New()), ownerID.String(), nil)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(t, rec))
	})

	t.Run("malformed task ID returns 400", func(t *testing.T) {
		rec := f.request(t, http.MethodPost,
			"/api/v1/imports/tasks/nope/run", ownerID.String(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestImportHandler_RunAll(t *testing.T) {
	f := newHandlerFixture(t)
	ownerID := uuid.New()
	connectionID := uuid.New()

	_, err := f.repo.EnsureTasks(context.Background(), ownerID, connectionID, 3)
	require.NoError(t, err)

	rec := f.request(t, http.MethodPost, "/api/v1/imports/run", ownerID.String(), nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(3), summary["total"])
	assert.Equal(t, float64(3), summary["completed"])
	assert.Equal(t, float64(0), summary["failed"])
}

func TestImportHandler_Reimport(t *testing.T) {
	f := newHandlerFixture(t)
	ownerID := uuid.New()
	connectionID := uuid.New()

	t.Run("requires prior import history", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/reimport", ownerID.String(),
			gin.H{"connection_id": connectionID.String()})

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NO_TASKS_FOUND", errorCode(t, rec))
	})

	t.Run("resets and reruns the task set", func(t *testing.T) {
		_, err := f.repo.EnsureTasks(context.Background(), ownerID, connectionID, 3)
		require.NoError(t, err)

		runRec := f.request(t, http.MethodPost, "/api/v1/imports/run", ownerID.String(), nil)
		require.Equal(t, http.StatusOK, runRec.Code)

		rec := f.request(t, http.MethodPost, "/api/v1/imports/reimport", ownerID.String(),
			gin.H{"connection_id": connectionID.String()})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, float64(3), data["reset_count"])

		tasks := data["tasks"].([]any)
		require.Len(t, tasks, 3)
		for _, raw := range tasks {
			assert.Equal(t, "completed", raw.(map[string]any)["status"])
		}
	})

	t.Run("run_now false resets without running", func(t *testing.T) {
		rec := f.request(t, http.MethodPost, "/api/v1/imports/reimport", ownerID.String(),
			gin.H{"connection_id": connectionID.String(), "run_now": false})

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decodeBody(t, rec)["data"].(map[string]any)
		tasks := data["tasks"].([]any)
		require.Len(t, tasks, 3)
		for _, raw := range tasks {
			assert.Equal(t, "pending", raw.(map[string]any)["status"])
		}
	})
}

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/core/config"
	"github.com/colonyops/dayboard/internal/core/schedule"
	"github.com/colonyops/dayboard/internal/data/db"
)

type envelope struct {
	Success     bool            `json:"success"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error"`
	Code        string          `json:"code"`
	CurrentData *schedule.Task  `json:"current_data"`
	Missing     []int64         `json:"missing"`
	Unexpected  []int64         `json:"unexpected"`
	HasNext     *bool           `json:"has_next"`
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	for _, m := range mutate {
		m(&cfg)
	}

	return NewServer(board.NewApp(&cfg, database, zerolog.Nop()), zerolog.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func createTask(t *testing.T, s *Server, content, date string) schedule.Task {
	t.Helper()
	w, env := do(t, s, http.MethodPost, "/api/tasks",
		fmt.Sprintf(`{"content":%q,"personnel":["alice"],"task_date":%q}`, content, date))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tasks []schedule.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 1)
	return tasks[0]
}

func dayIDs(t *testing.T, s *Server, date string) []int64 {
	t.Helper()
	w, env := do(t, s, http.MethodGet, "/api/days/"+date, "")
	require.Equal(t, http.StatusOK, w.Code)

	var list schedule.DayList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	return list.IDs()
}

func TestCreateAndGetTask(t *testing.T) {
	s := newTestServer(t)

	task := createTask(t, s, "pour slab", "2024-06-01")
	assert.Equal(t, int64(1), task.Version)
	assert.Equal(t, "2024-06-01", task.TaskDate.String())

	w, env := do(t, s, http.MethodGet, fmt.Sprintf("/api/tasks/%d", task.ID), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	var got schedule.Task
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "pour slab", got.Content)
	assert.Equal(t, []string{"alice"}, got.Personnel)

	w, env = do(t, s, http.MethodGet, "/api/tasks/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, env.Code)

	w, _ = do(t, s, http.MethodGet, "/api/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRangeWithTagPersonnel(t *testing.T) {
	s := newTestServer(t)

	w, env := do(t, s, http.MethodPost, "/api/tasks",
		`{"content":"survey","personnel":[{"value":"bob"},{"value":"alice"}],"start_date":"2024-06-03","end_date":"2024-06-05"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var tasks []schedule.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"bob", "alice"}, tasks[0].Personnel)
	assert.Equal(t, "2024-06-05", tasks[2].TaskDate.String())
}

func TestCreateMalformed(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "no personnel", body: `{"content":"x","task_date":"2024-06-01"}`},
		{name: "bad date", body: `{"content":"x","personnel":["a"],"task_date":"06/01/2024"}`},
		{name: "no date", body: `{"content":"x","personnel":["a"]}`},
		{name: "not json", body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, s, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeMalformedInput, env.Code)
			assert.False(t, env.Success)
		})
	}
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	task := createTask(t, s, "A", "2024-06-01")
	path := fmt.Sprintf("/api/tasks/%d", task.ID)

	w, env := do(t, s, http.MethodPatch, path, `{"version":1,"content":"A2"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated schedule.Task
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, int64(2), updated.Version)

	t.Run("stale version returns current data", func(t *testing.T) {
		w, env := do(t, s, http.MethodPatch, path, `{"version":1,"content":"mine"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, CodeStaleVersion, env.Code)
		require.NotNil(t, env.CurrentData)
		assert.Equal(t, int64(2), env.CurrentData.Version)
		assert.Equal(t, "A2", env.CurrentData.Content)
	})

	t.Run("overwrite with current version", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPost, fmt.Sprintf("/api/update_task/%d", task.ID), `{"version":2,"content":"mine"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing version", func(t *testing.T) {
		w, env := do(t, s, http.MethodPatch, path, `{"content":"x"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, CodeMalformedInput, env.Code)
	})

	t.Run("missing task", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPatch, "/api/tasks/999", `{"version":1,"content":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t)
	a := createTask(t, s, "A", "2024-06-01")
	b := createTask(t, s, "B", "2024-06-01")
	c := createTask(t, s, "C", "2024-06-01")

	w, _ := do(t, s, http.MethodPost, fmt.Sprintf("/api/delete_task/%d", b.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []int64{a.ID, c.ID}, dayIDs(t, s, "2024-06-01"))

	w, _ = do(t, s, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", b.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReorder(t *testing.T) {
	s := newTestServer(t)
	a := createTask(t, s, "A", "2024-06-01")
	b := createTask(t, s, "B", "2024-06-01")
	c := createTask(t, s, "C", "2024-06-01")

	body := fmt.Sprintf(`{"task_ids":["%d",%d,"%d"]}`, c.ID, a.ID, b.ID)
	w, _ := do(t, s, http.MethodPut, "/api/days/2024-06-01/order", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []int64{c.ID, a.ID, b.ID}, dayIDs(t, s, "2024-06-01"))

	t.Run("set mismatch", func(t *testing.T) {
		body := fmt.Sprintf(`{"task_ids":[%d,%d]}`, a.ID, b.ID)
		w, env := do(t, s, http.MethodPut, "/api/days/2024-06-01/order", body)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, CodeSetMismatch, env.Code)
		assert.Equal(t, []int64{c.ID}, env.Missing)
		assert.Empty(t, env.Unexpected)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		body := fmt.Sprintf(`{"task_ids":[%d,%d,%d]}`, a.ID, a.ID, b.ID)
		w, _ := do(t, s, http.MethodPut, "/api/days/2024-06-01/order", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("form alias", func(t *testing.T) {
		body := fmt.Sprintf(`{"date":"2024-06-01","task_ids":[%d,%d,%d]}`, a.ID, b.ID, c.ID)
		w, _ := do(t, s, http.MethodPost, "/api/update_order", body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []int64{a.ID, b.ID, c.ID}, dayIDs(t, s, "2024-06-01"))
	})
}

func TestMove(t *testing.T) {
	s := newTestServer(t)
	a := createTask(t, s, "A", "2024-06-01")
	b := createTask(t, s, "B", "2024-06-01")
	x := createTask(t, s, "X", "2024-06-02")

	body := fmt.Sprintf(`{
		"moved_task": {"id": "%d", "version": 1},
		"target_list": {"date": "2024-06-02", "task_ids": ["%d", "%d"]},
		"source_list": {"date": "2024-06-01", "task_ids": ["%d"]}
	}`, a.ID, a.ID, x.ID, b.ID)

	w, env := do(t, s, http.MethodPost, "/api/reorder_tasks", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var moved schedule.Task
	require.NoError(t, json.Unmarshal(env.Data, &moved))
	assert.Equal(t, int64(2), moved.Version)
	assert.Equal(t, "2024-06-02", moved.TaskDate.String())

	assert.Equal(t, []int64{b.ID}, dayIDs(t, s, "2024-06-01"))
	assert.Equal(t, []int64{a.ID, x.ID}, dayIDs(t, s, "2024-06-02"))

	t.Run("replayed move is stale", func(t *testing.T) {
		w, env := do(t, s, http.MethodPost, "/api/reorder_tasks", body)
		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, env.CurrentData)
		assert.Equal(t, int64(2), env.CurrentData.Version)
		assert.Equal(t, "2024-06-02", env.CurrentData.TaskDate.String())
	})

	t.Run("missing version", func(t *testing.T) {
		w, _ := do(t, s, http.MethodPost, "/api/reorder_tasks",
			fmt.Sprintf(`{"moved_task":{"id":%d},"target_list":{"date":"2024-06-02","task_ids":[%d]}}`, b.ID, b.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("target mismatch", func(t *testing.T) {
		w, env := do(t, s, http.MethodPost, "/api/reorder_tasks",
			fmt.Sprintf(`{"moved_task":{"id":%d,"version":1},"target_list":{"date":"2024-06-02","task_ids":[%d]}}`, b.ID, b.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.ElementsMatch(t, []int64{a.ID, x.ID}, env.Missing)
	})
}

func TestWeekAndExport(t *testing.T) {
	s := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/api/export?start_date=2024-06-05", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	createTask(t, s, "monday job", "2024-06-03")
	createTask(t, s, "friday job", "2024-06-07")

	w, env := do(t, s, http.MethodGet, "/api/schedule?start_date=2024-06-05", "")
	require.Equal(t, http.StatusOK, w.Code)

	var week board.Week
	require.NoError(t, json.Unmarshal(env.Data, &week))
	assert.Equal(t, "2024-06-03", week.Start.String())
	assert.Equal(t, "2024-05-27", week.PrevWeek.String())
	require.Len(t, week.Days, 7)
	assert.Len(t, week.Days[4].Tasks, 1)

	w, _ = do(t, s, http.MethodGet, "/api/schedule?start_date=bad", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, http.MethodGet, "/api/export?start_date=2024-06-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "dayboard_2024-06-03_to_2024-06-09.csv")
	assert.Contains(t, w.Body.String(), "monday job")
	assert.Contains(t, w.Body.String(), "friday job")
}

func TestActivity(t *testing.T) {
	s := newTestServer(t)
	task := createTask(t, s, "A", "2024-06-01")
	do(t, s, http.MethodPatch, fmt.Sprintf("/api/tasks/%d", task.ID), `{"version":1,"content":"B"}`)

	w, env := do(t, s, http.MethodGet, "/api/activity?page=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.HasNext)
	assert.False(t, *env.HasNext)

	var page struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "task.update", page.Entries[0].Action)
}

func TestPersonnel(t *testing.T) {
	s := newTestServer(t)

	w, _ := do(t, s, http.MethodPost, "/api/personnel", `{"name":"alice"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := do(t, s, http.MethodPost, "/api/personnel", `{"name":"alice"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, CodeDuplicate, env.Code)

	w, _ = do(t, s, http.MethodPost, "/api/personnel", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, s, http.MethodGet, "/api/personnel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "alice")

	w, _ = do(t, s, http.MethodDelete, "/api/personnel/alice", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, s, http.MethodDelete, "/api/personnel/alice", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w, _ := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

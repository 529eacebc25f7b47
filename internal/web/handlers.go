package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/colonyops/dayboard/internal/board"
	"github.com/colonyops/dayboard/internal/core/schedule"
)

func (s *Server) ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.app.DB.Conn().PingContext(c.Request.Context()); err != nil {
		s.log.Error().Ctx(c.Request.Context()).Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.badRequest(c, schedule.MalformedError("invalid task id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	task, err := s.app.Tasks.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, task)
}

func (s *Server) handleCreateTasks(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	startStr := req.StartDate
	if startStr == "" {
		startStr = req.TaskDate
	}
	if startStr == "" {
		s.badRequest(c, schedule.MalformedError("task_date or start_date is required"))
		return
	}

	start, err := schedule.ParseDate(startStr)
	if err != nil {
		s.badRequest(c, err)
		return
	}
	end, err := parseDateParam(req.EndDate)
	if err != nil {
		s.badRequest(c, err)
		return
	}

	created, err := s.app.Tasks.Create(c.Request.Context(), board.CreateInput{
		Content:   req.Content,
		Personnel: req.Personnel,
		Start:     start,
		End:       end,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusCreated, created)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	if req.Version == nil {
		s.badRequest(c, schedule.MalformedError("version is required"))
		return
	}

	patch, err := req.patch()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	task, err := s.app.Tasks.Update(c.Request.Context(), id, *req.Version, patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := s.taskID(c)
	if !ok {
		return
	}

	task, err := s.app.Tasks.Delete(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, task)
}

func (s *Server) handleDay(c *gin.Context) {
	date, err := schedule.ParseDate(c.Param("date"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	list, err := s.app.Tasks.Day(c.Request.Context(), date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, list)
}

func (s *Server) handleReorder(c *gin.Context) {
	var req listOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	req.Date = c.Param("date")
	s.reorder(c, req)
}

// handleUpdateOrder is the form-post variant carrying the date in the body.
func (s *Server) handleUpdateOrder(c *gin.Context) {
	var req listOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	s.reorder(c, req)
}

func (s *Server) reorder(c *gin.Context, req listOrderRequest) {
	order, err := req.order()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	list, err := s.app.Tasks.Reorder(c.Request.Context(), order)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, list)
}

func (s *Server) handleMove(c *gin.Context) {
	var body moveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}

	req, err := body.request()
	if err != nil {
		s.badRequest(c, err)
		return
	}

	task, err := s.app.Tasks.Move(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, task)
}

func (s *Server) handleWeek(c *gin.Context) {
	date, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		s.badRequest(c, err)
		return
	}

	week, err := s.app.Tasks.Week(c.Request.Context(), date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, week)
}

func (s *Server) handleExport(c *gin.Context) {
	date, err := parseDateParam(c.Query("start_date"))
	if err != nil {
		s.badRequest(c, err)
		return
	}
	if date.IsZero() {
		date = schedule.Today()
	}

	var buf bytes.Buffer
	if err := s.app.Tasks.Export(c.Request.Context(), &buf, date); err != nil {
		s.writeError(c, err)
		return
	}

	start := date.StartOfWeek()
	filename := fmt.Sprintf("dayboard_%s_to_%s.csv", start, start.AddDays(board.DaysPerWeek-1))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleActivity(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := s.app.Activity.List(c.Request.Context(), page)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     result,
		"has_next": result.HasNext(),
	})
}

func (s *Server) handleListPersonnel(c *gin.Context) {
	people, err := s.app.Personnel.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, people)
}

func (s *Server) handleAddPerson(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	person, err := s.app.Personnel.Add(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusCreated, person)
}

func (s *Server) handleRemovePerson(c *gin.Context) {
	if err := s.app.Personnel.Remove(c.Request.Context(), c.Param("name")); err != nil {
		s.writeError(c, err)
		return
	}
	s.ok(c, http.StatusOK, gin.H{"name": c.Param("name")})
}

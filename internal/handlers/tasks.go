package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lochan861/mt/internal/runner"
	"github.com/lochan861/mt/internal/util"
)

// ListTasks returns the caller's tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListTasks(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

// CreateTask accepts JSON, or multipart with an optional targets_file upload
func (h *Handlers) CreateTask(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req runner.CreateTaskRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if err := c.ShouldBind(&req); err != nil {
			util.RespondBadRequest(c, "invalid form: "+err.Error())
			return
		}
		if fh, err := c.FormFile("targets_file"); err == nil {
			f, err := fh.Open()
			if err != nil {
				util.RespondBadRequest(c, "could not read targets_file")
				return
			}
			defer f.Close()
			targets, err := runner.ParseTargetsFile(fh.Filename, f)
			if err != nil {
				respondTaskError(c, err)
				return
			}
			req.Targets = append(req.Targets, targets...)
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid JSON body")
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), userID, req)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// GetTask returns one task
func (h *Handlers) GetTask(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	task, err := h.tasks.GetTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask stops and removes a task
func (h *Handlers) DeleteTask(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondTaskError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// StartTask launches the task loop
func (h *Handlers) StartTask(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	task, err := h.tasks.StartTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// StopTask stops the task loop
func (h *Handlers) StopTask(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	task, err := h.tasks.StopTask(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// GetTaskLogs returns recent check results, newest first
func (h *Handlers) GetTaskLogs(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			util.RespondValidationError(c, "limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	logs, err := h.tasks.TaskLogs(c.Request.Context(), userID, c.Param("id"), limit)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

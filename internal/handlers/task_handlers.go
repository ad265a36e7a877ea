package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"taskapi/internal/handlers/dto"
	"taskapi/internal/logger"
	"taskapi/internal/middleware"
	"taskapi/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.TaskService.ListTasks(r.Context(), middleware.GetIdentity(r.Context()))
	if err != nil {
		handleError(w, r, err, "list_tasks")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var fields map[string]json.RawMessage
	if err := decodeJSONBody(w, r, &fields); err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	options, fieldErrors := dto.TaskOptions(fields)
	if len(fieldErrors) > 0 {
		logger.Warn("HTTP: Ошибка валидации",
			zap.Any("fields", fieldErrors),
			zap.String("client_ip", r.RemoteAddr))
		handleError(w, r, service.NewFieldErrors(fieldErrors), "create_task")
		return
	}

	created, err := s.TaskService.CreateTask(r.Context(), middleware.GetIdentity(r.Context()), options...)
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(created))
}

func (s *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	found, err := s.TaskService.GetTask(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := parseTaskID(r)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	var fields map[string]json.RawMessage
	if err := decodeJSONBody(w, r, &fields); err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	options, fieldErrors := dto.TaskOptions(fields)
	if len(fieldErrors) > 0 {
		handleError(w, r, service.NewFieldErrors(fieldErrors), "update_task")
		return
	}

	updated, err := s.TaskService.UpdateTask(r.Context(), middleware.GetIdentity(r.Context()), id, options...)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(updated))
}

func (s *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseTaskID(r)
	if err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	if err := s.TaskService.DeleteTask(r.Context(), middleware.GetIdentity(r.Context()), id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("message", fmt.Sprintf("Task with ID %s deleted", id.String())))
}

func (s *TaskHandler) FilterTasks(w http.ResponseWriter, r *http.Request) {
	pageSize, err := parsePathInt(r, "page_size")
	if err != nil {
		handleError(w, r, err, "filter_tasks")
		return
	}
	pageNumber, err := parsePathInt(r, "page_number")
	if err != nil {
		handleError(w, r, err, "filter_tasks")
		return
	}

	page, err := s.TaskService.FilterTasks(r.Context(), middleware.GetIdentity(r.Context()),
		chi.URLParam(r, "completed"), pageSize, pageNumber)
	if err != nil {
		handleError(w, r, err, "filter_tasks")
		return
	}

	responseWithBody(w, http.StatusOK, dto.FromPage(page))
}

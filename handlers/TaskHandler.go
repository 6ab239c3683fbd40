// Package handlers provides the HTTP request handlers for TaskService.
//
// This package contains the handlers of the task API: a home route and the CRUD
// operations over the task collection kept by the store package. Every handler
// validates its input before touching the store, counts its calls and errors with
// Prometheus counters, and logs each outcome with logrus.
//
// Request bodies are decoded into commands.TaskCommand and validated with the
// custom validators of the validation package. Structural problems are answered
// with 422 and one entry per offending field; domain problems (duplicate id,
// unknown id) with 400 and 404.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"TaskService/commands"
	"TaskService/models"
	"TaskService/response"
	"TaskService/store"
	"TaskService/validation"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	routeTasks = "/tarefas"
	routeTask  = "/tarefas/{id}"

	// Metric labels and log request names, one per operation.
	opHome   = "GET /"
	opList   = "GET " + routeTasks
	opCreate = "POST " + routeTasks
	opUpdate = "PUT " + routeTask
	opDelete = "DELETE " + routeTask

	// maxBodyBytes bounds the size of a task request body.
	maxBodyBytes = 1 << 20

	homeMessage        = "Task API online"
	duplicateIDDetail  = "ID already exists."
	notFoundDetail     = "Task not found."
	deletedDetail      = "Task deleted successfully."
	internalErrDetail  = "Internal server error."
	bodyTooLargeDetail = "Request body too large."
)

// TaskHandler serves the task endpoints over a TaskStore.
type TaskHandler struct {
	store    *store.TaskStore
	log      *logrus.Logger
	validate *validator.Validate
}

// NewTaskHandler returns a TaskHandler using s for persistence and log for request logs.
func NewTaskHandler(s *store.TaskStore, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		store:    s,
		log:      log,
		validate: validation.New(),
	}
}

func (h *TaskHandler) requestLog(req *http.Request, operation, request string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"task operation": operation,
		"request":        request,
		"request id":     RequestID(req.Context()),
	})
}

// HomeHandler reports that the API is online.
//
// @Summary  Home
// @Produce  json
// @Success  200  {object}  response.Message
// @Router   / [get]
func (h *TaskHandler) HomeHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	endPointCounter.WithLabelValues(opHome).Inc()
	response.WriteJSON(res, http.StatusOK, response.Message{Message: homeMessage})
}

// ListTasksHandler returns every stored task in file order.
// A missing or unreadable tasks file yields an empty list; a file whose contents
// do not describe tasks yields 500.
//
// Example response:
//
//	[
//	  {
//	    "id": 1,
//	    "titulo": "Buy milk",
//	    "descricao": "",
//	    "status": "pending"
//	  }
//	]
//
// @Summary  List tasks
// @Produce  json
// @Success  200  {array}   models.Task
// @Failure  500  {object}  response.Detail
// @Router   /tarefas [get]
func (h *TaskHandler) ListTasksHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	endPointCounter.WithLabelValues(opList).Inc()
	log := h.requestLog(req, "list tasks", opList)

	tasks, err := h.store.List()
	if err != nil {
		errorCounter.WithLabelValues(opList).Inc()
		h.internalError(res, log, err)
		return
	}
	log.WithField("tasks", len(tasks)).Info("Processing request")
	response.WriteJSON(res, http.StatusOK, tasks)
}

// CreateTaskHandler handles the HTTP request for creating a new task.
// The id is supplied by the caller and must not be used by a stored task.
// The description defaults to "" and the status to "pending".
//
// Example request body:
//
//	{
//	  "id": 1,
//	  "titulo": "Buy milk"
//	}
//
// Example response:
//
//	{
//	  "id": 1,
//	  "titulo": "Buy milk",
//	  "descricao": "",
//	  "status": "pending"
//	}
//
// @Summary  Create a task
// @Accept   json
// @Produce  json
// @Param    task  body      commands.TaskCommand  true  "Task"
// @Success  200   {object}  models.Task
// @Failure  400   {object}  response.Detail
// @Failure  422   {object}  response.ValidationError
// @Router   /tarefas [post]
func (h *TaskHandler) CreateTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	endPointCounter.WithLabelValues(opCreate).Inc()
	log := h.requestLog(req, "create a task", opCreate)

	task, ok := h.decodeTask(res, req, log)
	if !ok {
		errorCounter.WithLabelValues(opCreate).Inc()
		return
	}
	created, err := h.store.Create(task)
	if err != nil {
		errorCounter.WithLabelValues(opCreate).Inc()
		if errors.Is(err, store.ErrDuplicateID) {
			log.WithField("task id", task.Id).Error(err.Error())
			response.WriteJSON(res, http.StatusBadRequest, response.Detail{Detail: duplicateIDDetail})
			return
		}
		h.internalError(res, log, err)
		return
	}

	taskJSON, _ := json.Marshal(created)
	log.WithField("request body", string(taskJSON)).Info("Processing request")
	response.WriteJSON(res, http.StatusOK, created)
}

// UpdateTaskHandler replaces the first stored task whose id matches the path id
// with the request body. The replacement is complete: omitted optional fields
// fall back to their defaults rather than keeping the stored values, and the
// body id is stored even when it differs from the path id.
//
// Example request: PUT /tarefas/1
//
//	{
//	  "id": 1,
//	  "titulo": "Buy milk",
//	  "status": "completed"
//	}
//
// @Summary  Update a task
// @Accept   json
// @Produce  json
// @Param    id    path      int                   true  "Task id"
// @Param    task  body      commands.TaskCommand  true  "Task"
// @Success  200   {object}  models.Task
// @Failure  404   {object}  response.Detail
// @Failure  422   {object}  response.ValidationError
// @Router   /tarefas/{id} [put]
func (h *TaskHandler) UpdateTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	endPointCounter.WithLabelValues(opUpdate).Inc()
	log := h.requestLog(req, "update a task", opUpdate)

	idCommand, ok := h.parseTaskId(res, req, log)
	if !ok {
		errorCounter.WithLabelValues(opUpdate).Inc()
		return
	}
	task, ok := h.decodeTask(res, req, log)
	if !ok {
		errorCounter.WithLabelValues(opUpdate).Inc()
		return
	}
	updated, err := h.store.Update(idCommand.Id, task)
	if err != nil {
		errorCounter.WithLabelValues(opUpdate).Inc()
		if errors.Is(err, store.ErrTaskNotFound) {
			log.WithField("task id", idCommand.Id).Error(err.Error())
			response.WriteJSON(res, http.StatusNotFound, response.Detail{Detail: notFoundDetail})
			return
		}
		h.internalError(res, log, err)
		return
	}

	taskJSON, _ := json.Marshal(updated)
	log.WithFields(logrus.Fields{
		"task id":      idCommand.Id,
		"request body": string(taskJSON),
	}).Info("Processing request")
	response.WriteJSON(res, http.StatusOK, updated)
}

// DeleteTaskHandler removes every stored task whose id matches the path id.
//
// Returns:
//
//	{
//	  "detail": "Task deleted successfully."
//	}
//
// @Summary  Delete a task
// @Produce  json
// @Param    id   path      int  true  "Task id"
// @Success  200  {object}  response.Detail
// @Failure  404  {object}  response.Detail
// @Failure  422  {object}  response.ValidationError
// @Router   /tarefas/{id} [delete]
func (h *TaskHandler) DeleteTaskHandler(res http.ResponseWriter, req *http.Request, endPointCounter *prometheus.CounterVec, errorCounter *prometheus.CounterVec) {
	endPointCounter.WithLabelValues(opDelete).Inc()
	log := h.requestLog(req, "delete a task", opDelete)

	idCommand, ok := h.parseTaskId(res, req, log)
	if !ok {
		errorCounter.WithLabelValues(opDelete).Inc()
		return
	}
	if err := h.store.Delete(idCommand.Id); err != nil {
		errorCounter.WithLabelValues(opDelete).Inc()
		if errors.Is(err, store.ErrTaskNotFound) {
			log.WithField("task id", idCommand.Id).Error(err.Error())
			response.WriteJSON(res, http.StatusNotFound, response.Detail{Detail: notFoundDetail})
			return
		}
		h.internalError(res, log, err)
		return
	}

	log.WithField("task id", idCommand.Id).Info("Processing request")
	response.WriteJSON(res, http.StatusOK, response.Detail{Detail: deletedDetail})
}

// decodeTask reads and validates the task body of req. On failure the error
// response has already been written.
func (h *TaskHandler) decodeTask(res http.ResponseWriter, req *http.Request, log *logrus.Entry) (models.Task, bool) {
	cmd, err := commands.DecodeTaskCommand(http.MaxBytesReader(res, req.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Error(bodyTooLargeDetail)
			response.WriteJSON(res, http.StatusRequestEntityTooLarge, response.Detail{Detail: bodyTooLargeDetail})
			return models.Task{}, false
		}
		log.Error("Invalid request body")
		response.WriteJSON(res, http.StatusUnprocessableEntity, response.ValidationError{Detail: validation.DecodeErrors(err)})
		return models.Task{}, false
	}
	if err := h.validate.Struct(cmd); err != nil {
		log.Error("Invalid request body inputs")
		response.WriteJSON(res, http.StatusUnprocessableEntity, response.ValidationError{Detail: validation.FieldErrors(err, "body")})
		return models.Task{}, false
	}
	return cmd.Task(), true
}

func (h *TaskHandler) parseTaskId(res http.ResponseWriter, req *http.Request, log *logrus.Entry) (commands.TaskIdCommand, bool) {
	raw := req.PathValue("id")
	cmd, err := commands.ParseTaskIdCommand(raw)
	if err != nil {
		log.WithField("task id", raw).Error("Invalid task ID")
		response.WriteJSON(res, http.StatusUnprocessableEntity, response.ValidationError{Detail: []response.FieldError{{
			Loc:  []string{"path", "id"},
			Msg:  "Input should be a valid integer, unable to parse string as an integer",
			Type: "int_parsing",
		}}})
		return commands.TaskIdCommand{}, false
	}
	return cmd, true
}

func (h *TaskHandler) internalError(res http.ResponseWriter, log *logrus.Entry, err error) {
	var schemaErr *store.SchemaError
	if errors.As(err, &schemaErr) {
		log = log.WithField("tasks file", schemaErr.Path)
	}
	log.Error(err.Error())
	response.WriteJSON(res, http.StatusInternalServerError, response.Detail{Detail: internalErrDetail})
}

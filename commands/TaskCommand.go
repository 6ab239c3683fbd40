// Package commands contains the commands for the application to be used for request inputs.
package commands

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"TaskService/models"
)

// TaskCommand is the request body of create and update.
// Pointer fields tell an absent field apart from its zero value.
type TaskCommand struct {
	Id          *int    `json:"id" validate:"required"`
	Title       *string `json:"titulo" validate:"required,fieldValidator"`
	Description *string `json:"descricao"`
	Status      *string `json:"status" validate:"omitempty,statusValidator"`
}

// Task builds the task described by the command, filling in defaults for
// the optional fields. It must only be called on a validated command.
func (c TaskCommand) Task() models.Task {
	task := models.Task{
		Id:     *c.Id,
		Title:  *c.Title,
		Status: models.StatusPending,
	}
	if c.Description != nil {
		task.Description = *c.Description
	}
	if c.Status != nil {
		task.Status = *c.Status
	}
	return task
}

// DecodeTaskCommand reads a TaskCommand from r. Keys only match their field
// with the exact case of the json tag; any other key is ignored, so
// {"ID":1} leaves Id unset.
func DecodeTaskCommand(r io.Reader) (TaskCommand, error) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&fields); err != nil {
		return TaskCommand{}, err
	}
	var cmd TaskCommand
	targets := []struct {
		key string
		dst any
	}{
		{"id", &cmd.Id},
		{"titulo", &cmd.Title},
		{"descricao", &cmd.Description},
		{"status", &cmd.Status},
	}
	for _, target := range targets {
		raw, ok := fields[target.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target.dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				typeErr.Field = target.key
			}
			return TaskCommand{}, err
		}
	}
	return cmd, nil
}

// TaskIdCommand represents the task id taken from the request path.
type TaskIdCommand struct {
	Id int
}

// ParseTaskIdCommand parses the raw path value of a task id.
func ParseTaskIdCommand(raw string) (TaskIdCommand, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return TaskIdCommand{}, err
	}
	return TaskIdCommand{Id: id}, nil
}

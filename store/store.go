// Package store persists the task collection as a single JSON array on disk.
//
// Every operation reads the whole backing file and every mutation rewrites it.
// A TaskStore serializes its operations, so concurrent requests served by one
// process cannot lose each other's updates. Several processes sharing one file
// are not supported.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"TaskService/models"
	"TaskService/validation"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	// ErrDuplicateID is returned by Create when a stored task already has the id.
	ErrDuplicateID = errors.New("task id already exists")
	// ErrTaskNotFound is returned by Update and Delete when no stored task has the id.
	ErrTaskNotFound = errors.New("task not found")
)

// SchemaError reports a backing file that holds valid JSON which does not
// describe a list of tasks.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tasks file %s does not match the task schema: %v", e.Path, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// TaskStore is the single owner of a backing file.
type TaskStore struct {
	path     string
	log      *logrus.Logger
	validate *validator.Validate
	size     prometheus.Gauge

	mu sync.Mutex
	// corrupt is set when the last load found malformed JSON; the next save
	// keeps a copy of those bytes before replacing them.
	corrupt bool
}

// Option configures a TaskStore.
type Option func(*TaskStore)

// WithLogger sets the logger the store reports recoveries and reloads to.
func WithLogger(log *logrus.Logger) Option {
	return func(s *TaskStore) { s.log = log }
}

// WithSizeGauge sets a gauge updated with the collection size after every load.
func WithSizeGauge(g prometheus.Gauge) Option {
	return func(s *TaskStore) { s.size = g }
}

// New returns a store backed by the file at path. The file does not need to exist.
func New(path string, opts ...Option) *TaskStore {
	s := &TaskStore{
		path:     path,
		log:      logrus.StandardLogger(),
		validate: validation.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file path.
func (s *TaskStore) Path() string {
	return s.path
}

// Load reads the whole collection from the backing file.
//
// A missing, empty or malformed file yields an empty collection; the malformed
// case is logged. Valid JSON that is not a list of valid tasks fails the whole
// load with a *SchemaError.
func (s *TaskStore) Load() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Save replaces the backing file with tasks.
func (s *TaskStore) Save(tasks []models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(tasks)
}

// List returns every stored task in file order.
func (s *TaskStore) List() ([]models.Task, error) {
	return s.Load()
}

// Create appends task unless a stored task already uses its id.
func (s *TaskStore) Create(task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range tasks {
		if t.Id == task.Id {
			return models.Task{}, ErrDuplicateID
		}
	}
	if err := s.save(append(tasks, task)); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// Update replaces the first stored task with the given id by task, as is.
// task may carry a different id than the one it replaces.
func (s *TaskStore) Update(id int, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return models.Task{}, err
	}
	for i, t := range tasks {
		if t.Id != id {
			continue
		}
		tasks[i] = task
		if err := s.save(tasks); err != nil {
			return models.Task{}, err
		}
		return task, nil
	}
	return models.Task{}, ErrTaskNotFound
}

// Delete removes every stored task with the given id. The file is left
// untouched when nothing matches.
func (s *TaskStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.load()
	if err != nil {
		return err
	}
	kept := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Id != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return ErrTaskNotFound
	}
	return s.save(kept)
}

func (s *TaskStore) load() ([]models.Task, error) {
	tasks, err := s.read()
	if err != nil {
		return nil, err
	}
	if s.size != nil {
		s.size.Set(float64(len(tasks)))
	}
	s.log.WithFields(logrus.Fields{
		"tasks file": s.path,
		"tasks":      len(tasks),
	}).Debug("loaded tasks")
	return tasks, nil
}

func (s *TaskStore) read() ([]models.Task, error) {
	s.corrupt = false
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Task{}, nil
	}

	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.corrupt = true
		s.log.WithFields(logrus.Fields{
			"tasks file": s.path,
		}).Warn("tasks file is not valid JSON, treating the collection as empty: " + err.Error())
		return []models.Task{}, nil
	}

	var tasks []models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, &SchemaError{Path: s.path, Err: err}
	}
	if tasks == nil {
		// top-level null
		return nil, &SchemaError{Path: s.path, Err: errors.New("expected an array of tasks")}
	}
	for i := range tasks {
		if tasks[i].Status == "" {
			tasks[i].Status = models.StatusPending
		}
		tasks[i].Status = models.NormalizeStatus(tasks[i].Status)
		if err := s.validate.Struct(tasks[i]); err != nil {
			return nil, &SchemaError{Path: s.path, Err: fmt.Errorf("task at index %d: %w", i, err)}
		}
	}
	return tasks, nil
}

func (s *TaskStore) save(tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	if s.corrupt {
		backup, err := s.backupCorrupt()
		if err != nil {
			return fmt.Errorf("back up malformed tasks file: %w", err)
		}
		s.log.WithFields(logrus.Fields{
			"tasks file": s.path,
			"backup":     backup,
		}).Warn("kept a copy of the malformed tasks file before overwriting it")
		s.corrupt = false
	}

	if err := writeFileAtomic(s.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	if s.size != nil {
		s.size.Set(float64(len(tasks)))
	}
	return nil
}

func (s *TaskStore) backupCorrupt() (string, error) {
	backup := s.path + ".corrupt-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	src, err := os.Open(s.path)
	if err != nil {
		return "", err
	}
	defer src.Close()
	dst, err := os.OpenFile(backup, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return "", err
	}
	return backup, dst.Close()
}

// writeFileAtomic writes data to a temp file next to path and renames it over
// path, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}

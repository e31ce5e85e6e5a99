// Package store persists forecast records as one JSON file per run.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabcast-cli/internal/utils"
)

var (
	ErrNotFound  = errors.New("forecast record not found")
	ErrAmbiguous = errors.New("forecast id prefix is ambiguous")
)

// Sink receives finished forecast records.
type Sink interface {
	Save(*Record) error
}

// FileStore keeps records as <dir>/<id>.json.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

// Save assigns an id when missing, bumps UpdatedAt and writes atomically.
func (s *FileStore) Save(r *Record) error {
	if r == nil {
		return errors.New("record is nil")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	r.UpdatedAt = time.Now().UTC()
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure store dir: %w", err)
	}
	data, err := utils.PrettyJSON(r)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(s.path(r.ID), data)
}

// List returns every record, newest first. Unreadable files are skipped.
func (s *FileStore) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var out []*Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		r, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Load returns the record with the given id or unique id prefix.
func (s *FileStore) Load(id string) (*Record, error) {
	id, err := s.resolve(id)
	if err != nil {
		return nil, err
	}
	return s.read(s.path(id))
}

func (s *FileStore) Delete(id string) error {
	id, err := s.resolve(id)
	if err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *FileStore) resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}
	if _, err := uuid.Parse(id); err == nil {
		if _, err := os.Stat(s.path(id)); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return id, nil
	}
	if strings.ContainsAny(id, `/\.`) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	matches, _ := filepath.Glob(filepath.Join(s.dir, id+"*.json"))
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return strings.TrimSuffix(filepath.Base(matches[0]), ".json"), nil
	default:
		return "", fmt.Errorf("%w: %s matches %d records", ErrAmbiguous, id, len(matches))
	}
}

func (s *FileStore) path(id string) string { return filepath.Join(s.dir, id+".json") }

func (s *FileStore) read(path string) (*Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse record %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

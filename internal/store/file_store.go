package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jpacas/gtd-neto/internal/model"
)

// fileDoc is the on-disk document: {"version": 1, "items": [...]}.
type fileDoc struct {
	Version int          `json:"version"`
	Items   []model.Item `json:"items"`
}

const fileFormatVersion = 1

// FileStore keeps one owner's items in a single pretty-printed JSON
// file. It has no owner partitioning: the file path is the tenant.
// The owner argument is still validated so callers keep one code path
// across backends.
//
// Writes render the whole document to a temp file in the same
// directory and rename it over the destination, so a concurrent reader
// sees either the old snapshot or the new one, never a torn write.
type FileStore struct {
	mu   sync.RWMutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// read returns the current document. A missing or unparseable file is
// an empty store, not an error.
func (s *FileStore) read() (fileDoc, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fileDoc{}, s.wrap("mkdir", err)
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileDoc{Version: fileFormatVersion, Items: []model.Item{}}, nil
		}
		return fileDoc{}, s.wrap("read", err)
	}

	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fileDoc{Version: fileFormatVersion, Items: []model.Item{}}, nil
	}
	if doc.Items == nil {
		doc.Items = []model.Item{}
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDoc) error {
	doc.Version = fileFormatVersion

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	b = append(b, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.wrap("mkdir", err)
	}

	tmp, err := os.CreateTemp(dir, ".gtd-*.json")
	if err != nil {
		return s.wrap("tempfile", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return s.wrap("write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return s.wrap("close", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return s.wrap("chmod", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return s.wrap("rename", err)
	}
	return nil
}

func (s *FileStore) wrap(op string, err error) error {
	cat := CategoryUnknown
	if os.IsPermission(err) {
		cat = CategoryPermission
	}
	return &Error{Category: cat, Op: "file store " + op, Err: err}
}

func (s *FileStore) LoadAll(ctx context.Context, owner string) ([]model.Item, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (s *FileStore) LoadByList(ctx context.Context, owner string, list model.List, excludeDone bool) ([]model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(all))
	for _, it := range all {
		if it.List != list {
			continue
		}
		if excludeDone && it.Status == model.StatusDone {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

func (s *FileStore) LoadByStatus(ctx context.Context, owner string, status model.Status) ([]model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(all))
	for _, it := range all {
		if it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *FileStore) LoadByID(ctx context.Context, owner, id string) (model.Item, error) {
	if err := checkID(id); err != nil {
		return model.Item{}, err
	}
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return model.Item{}, err
	}
	for _, it := range all {
		if it.ID == id {
			return it, nil
		}
	}
	return model.Item{}, ErrNotFound
}

func (s *FileStore) SaveAll(ctx context.Context, owner string, items []model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if items == nil {
		items = []model.Item{}
	}
	return s.write(fileDoc{Items: items})
}

func (s *FileStore) SaveOne(ctx context.Context, owner string, item model.Item) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(item.ID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	replaced := false
	for i := range doc.Items {
		if doc.Items[i].ID == item.ID {
			doc.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Items = append(doc.Items, item)
	}
	return s.write(doc)
}

func (s *FileStore) DeleteOne(ctx context.Context, owner, id string) error {
	if err := checkOwner(owner); err != nil {
		return err
	}
	if err := checkID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	out := doc.Items[:0]
	for _, it := range doc.Items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	if len(out) == len(doc.Items) {
		// Nothing removed; deleting an absent id is not an error.
		return nil
	}
	doc.Items = out
	return s.write(doc)
}

func (s *FileStore) FindRecentDuplicate(ctx context.Context, owner, input string, now time.Time) (*model.Item, error) {
	all, err := s.LoadAll(ctx, owner)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if isDuplicateCandidate(all[i], input, now) {
			return &all[i], nil
		}
	}
	return nil, nil
}

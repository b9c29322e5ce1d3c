package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when a lead ID does not exist in the store.
var ErrNotFound = errors.New("lead not found")

// Store persists the lead list as a JSON file under a data directory. A
// missing, empty or unreadable file loads as an empty list.
type Store struct {
	path string
}

// NewStore ensures the data directory and an initialized leads file exist.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{path: filepath.Join(dataDir, "leads.json")}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		if err := s.Save(nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Load reads the board. Soft failures (missing file, empty file, malformed
// JSON) come back as an empty list so a damaged file never blocks the app.
func (s *Store) Load() ([]Lead, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Lead{}, nil
		}
		return nil, fmt.Errorf("read leads file: %w", err)
	}
	if len(data) == 0 {
		return []Lead{}, nil
	}
	var list []Lead
	if err := json.Unmarshal(data, &list); err != nil {
		return []Lead{}, nil
	}
	if list == nil {
		list = []Lead{}
	}
	return list, nil
}

// Save rewrites the whole board file and fsyncs it.
func (s *Store) Save(list []Lead) error {
	if list == nil {
		list = []Lead{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("write leads file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Add appends a new lead and persists.
func (s *Store) Add(lead Lead) error {
	list, err := s.Load()
	if err != nil {
		return err
	}
	return s.Save(append(list, lead))
}

// Update replaces the name and email of an existing lead.
func (s *Store) Update(id, name, email string) (Lead, error) {
	list, err := s.Load()
	if err != nil {
		return Lead{}, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		if name != "" {
			list[i].Name = name
		}
		if email != "" {
			list[i].Email = email
		}
		return list[i], s.Save(list)
	}
	return Lead{}, ErrNotFound
}

// Move transitions a lead to another board column.
func (s *Store) Move(id, status string) (Lead, error) {
	if !ValidStatus(status) {
		return Lead{}, fmt.Errorf("invalid status %q", status)
	}
	list, err := s.Load()
	if err != nil {
		return Lead{}, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Status = status
		return list[i], s.Save(list)
	}
	return Lead{}, ErrNotFound
}

// Delete removes a lead from the board.
func (s *Store) Delete(id string) error {
	list, err := s.Load()
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			return s.Save(append(list[:i], list[i+1:]...))
		}
	}
	return ErrNotFound
}

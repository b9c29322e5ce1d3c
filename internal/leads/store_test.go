package leads

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestNewStoreInitializesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "leads.json")); err != nil {
		t.Fatalf("leads file not created: %v", err)
	}
	list, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty board, got %d leads", len(list))
	}
}

func TestLoadToleratesDamagedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "leads.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	list, err := store.Load()
	if err != nil {
		t.Fatalf("load must tolerate corruption: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty board, got %d leads", len(list))
	}
}

func TestAddAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	lead, err := New("Ana Souza", "ana@example.com")
	if err != nil {
		t.Fatalf("new lead: %v", err)
	}
	if err := store.Add(lead); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(list))
	}
	if list[0].Name != "Ana Souza" || list[0].Status != StatusNew {
		t.Fatalf("unexpected lead: %+v", list[0])
	}
}

func TestNewLeadDefaults(t *testing.T) {
	lead, err := New("Ana", "")
	if err != nil {
		t.Fatalf("new lead: %v", err)
	}
	if lead.Email != "No Email" {
		t.Fatalf("blank email should default, got %q", lead.Email)
	}
	if lead.ID == "" {
		t.Fatal("lead must get an ID")
	}
	if _, err := New("", "x@y.z"); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestMoveLead(t *testing.T) {
	store := newTestStore(t)
	lead, _ := New("Ana", "")
	if err := store.Add(lead); err != nil {
		t.Fatalf("add: %v", err)
	}

	moved, err := store.Move(lead.ID, StatusPitched)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.Status != StatusPitched {
		t.Fatalf("expected %q, got %q", StatusPitched, moved.Status)
	}

	if _, err := store.Move(lead.ID, "Archived"); err == nil {
		t.Fatal("expected error for invalid status")
	}
	if _, err := store.Move("missing", StatusContacted); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDeleteLead(t *testing.T) {
	store := newTestStore(t)
	lead, _ := New("Ana", "")
	if err := store.Add(lead); err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := store.Update(lead.ID, "Ana Souza", "ana@example.com")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Ana Souza" || updated.Email != "ana@example.com" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	if err := store.Delete(lead.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := store.Load()
	if len(list) != 0 {
		t.Fatalf("expected empty board after delete, got %d", len(list))
	}
	if err := store.Delete(lead.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

package store

import "testing"

func TestImportFiles_RoundTrip(t *testing.T) {
	st := testStore(t)

	// Initially empty.
	loaded, err := st.LoadImportedFiles()
	if err != nil {
		t.Fatalf("LoadImportedFiles: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty, got %d entries", len(loaded))
	}

	// Persist some entries.
	entries := map[string]int64{
		"/a/b/c.jsonl": 100,
		"/d/e/f.jsonl": 200,
		"/g/h/i.jsonl": 300,
	}
	if err := st.ReplaceImportedFiles(entries); err != nil {
		t.Fatalf("ReplaceImportedFiles: %v", err)
	}

	// Load them back.
	loaded, err = st.LoadImportedFiles()
	if err != nil {
		t.Fatalf("LoadImportedFiles: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("got %d entries, want 3", len(loaded))
	}
	for path, mtime := range entries {
		if loaded[path] != mtime {
			t.Errorf("loaded[%q] = %d, want %d", path, loaded[path], mtime)
		}
	}
}

func TestImportFiles_ReplaceOverwrites(t *testing.T) {
	st := testStore(t)

	first := map[string]int64{
		"/a.jsonl": 100,
		"/b.jsonl": 200,
	}
	if err := st.ReplaceImportedFiles(first); err != nil {
		t.Fatalf("ReplaceImportedFiles: %v", err)
	}

	second := map[string]int64{
		"/c.jsonl": 300,
	}
	if err := st.ReplaceImportedFiles(second); err != nil {
		t.Fatalf("ReplaceImportedFiles: %v", err)
	}

	loaded, err := st.LoadImportedFiles()
	if err != nil {
		t.Fatalf("LoadImportedFiles: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d entries, want 1", len(loaded))
	}
	if loaded["/c.jsonl"] != 300 {
		t.Errorf("loaded[/c.jsonl] = %d, want 300", loaded["/c.jsonl"])
	}
}

func TestImportFiles_DeleteSingle(t *testing.T) {
	st := testStore(t)

	entries := map[string]int64{
		"/a.jsonl": 100,
		"/b.jsonl": 200,
	}
	if err := st.ReplaceImportedFiles(entries); err != nil {
		t.Fatalf("ReplaceImportedFiles: %v", err)
	}

	if err := st.DeleteImportedFile("/a.jsonl"); err != nil {
		t.Fatalf("DeleteImportedFile: %v", err)
	}

	loaded, err := st.LoadImportedFiles()
	if err != nil {
		t.Fatalf("LoadImportedFiles: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d entries, want 1", len(loaded))
	}
	if _, ok := loaded["/a.jsonl"]; ok {
		t.Error("/a.jsonl should have been deleted")
	}
}

func TestImportFiles_DeleteNonexistent(t *testing.T) {
	st := testStore(t)

	if err := st.DeleteImportedFile("/nope"); err != nil {
		t.Fatalf("DeleteImportedFile: %v", err)
	}
}

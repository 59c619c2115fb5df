package importer

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/mfreitas/salesdash/internal/storage"
)

func overrideRepo(t *testing.T, repo storage.SalesRepository) {
	t.Helper()
	old := repoCtor
	repoCtor = func(*sql.DB) storage.SalesRepository { return repo }
	t.Cleanup(func() { repoCtor = old })
}

func TestProcessDirectory_ImportsAndLogs(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", header+"Mug,10,2,,,\n")
	writeCSV(t, dir, "b.csv", header+"Kettle,40,1,,,\n")

	repo := &captureRepo{}
	overrideRepo(t, repo)

	if err := ProcessDirectory(context.Background(), dir, nil, 2, false); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.batches) != 2 {
		t.Fatalf("batches=%d, want 2", len(repo.batches))
	}
	if !repo.imported["a.csv"] || !repo.imported["b.csv"] {
		t.Fatalf("import log not updated: %+v", repo.imported)
	}
}

func TestProcessDirectory_SkipsImported(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", header+"Mug,10,2,,,\n")

	repo := &captureRepo{imported: map[string]bool{"a.csv": true}}
	overrideRepo(t, repo)

	if err := ProcessDirectory(context.Background(), dir, nil, 1, false); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.batches) != 0 {
		t.Fatalf("skipped file was imported: %d batches", len(repo.batches))
	}

	// force re-imports
	if err := ProcessDirectory(context.Background(), dir, nil, 1, true); err != nil {
		t.Fatalf("forced process: %v", err)
	}
	if len(repo.batches) != 1 {
		t.Fatalf("force did not import: %d batches", len(repo.batches))
	}
}

func TestProcessDirectory_NoFiles(t *testing.T) {
	err := ProcessDirectory(context.Background(), t.TempDir(), nil, 0, false)
	if err == nil || !strings.Contains(err.Error(), "no .csv files") {
		t.Fatalf("err=%v", err)
	}
}

func TestProcessDirectory_BadFileFails(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "bad.csv", "wrong,header\n")

	repo := &captureRepo{}
	overrideRepo(t, repo)

	if err := ProcessDirectory(context.Background(), dir, nil, 1, false); err == nil {
		t.Fatalf("expected header error")
	}
}

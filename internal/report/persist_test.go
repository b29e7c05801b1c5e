package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	records []*store.ProductRecord
	err     error
}

func (f *fakeIndex) Upsert(_ context.Context, rec *store.ProductRecord) error {
	if f.err != nil {
		return f.err
	}
	for i, existing := range f.records {
		if existing.ID == rec.ID {
			f.records[i] = rec
			return nil
		}
	}
	f.records = append(f.records, rec)
	return nil
}

func degradedReport(t *testing.T) *RunReport {
	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusFailed, "ERROR: generation failed (B): boom")
	record(t, ec, "C", taskgraph.StatusFailed, "ERROR: generation failed (C): boom")
	return Aggregate(testGraph(t), ec, opts())
}

func TestPersistThenLoadLatestMatchesSummary(t *testing.T) {
	dir := t.TempDir()
	files := NewFileStore(dir)
	index := &fakeIndex{}
	r := degradedReport(t)

	res := NewPersister(files, index).Persist(context.Background(), r)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	assert.Equal(t, []string{
		filepath.Join(dir, "results_20250601_093000_3f2b8c1d.json"),
		filepath.Join(dir, "results_20250601_093000_3f2b8c1d.txt"),
		filepath.Join(dir, LatestFile),
	}, res.Artifacts)

	latest, err := files.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, r.Summary, latest)

	require.Len(t, index.records, 1)
	row := index.records[0]
	assert.Equal(t, r.RunID, row.ID)
	assert.Equal(t, store.CategoryRun, row.Category)
	assert.Equal(t, "run "+r.RunID, row.Name)
}

func TestPersistRoundTripsJSONRecord(t *testing.T) {
	files := NewFileStore(t.TempDir())
	r := degradedReport(t)

	path, err := files.WriteJSON(r)
	require.NoError(t, err)

	loaded, err := files.LoadRun(path)
	require.NoError(t, err)
	assert.Equal(t, r.Summary, loaded.Summary)
	assert.Equal(t, r.Stats, loaded.Stats)
	assert.True(t, r.Timestamp.Equal(loaded.Timestamp))
	require.Len(t, loaded.Tasks, 3)
	assert.Equal(t, "failed", loaded.Tasks[1].Status)
}

func TestPersistLatestIsOverwritten(t *testing.T) {
	files := NewFileStore(t.TempDir())
	first := degradedReport(t)

	ec := taskgraph.NewExecutionContext()
	record(t, ec, "A", taskgraph.StatusSucceeded, "x")
	record(t, ec, "B", taskgraph.StatusSucceeded, "y")
	record(t, ec, "C", taskgraph.StatusSucceeded, "second run report")
	o := opts()
	o.RunID = "aaaaaaaa-0000-4000-8000-000000000002"
	o.Timestamp = runTime.Add(time.Hour)
	second := Aggregate(testGraph(t), ec, o)

	p := NewPersister(files, nil)
	require.True(t, p.Persist(context.Background(), first).OK())
	require.True(t, p.Persist(context.Background(), second).OK())

	latest, err := files.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, "second run report", latest)

	runs, err := files.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "results_20250601_103000_aaaaaaaa.json", runs[0].Name)
	assert.Equal(t, "results_20250601_093000_3f2b8c1d.json", runs[1].Name)
}

func TestPersistFailuresAreCollectedNotFatal(t *testing.T) {
	dir := t.TempDir()
	// a regular file where the output directory should be
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	index := &fakeIndex{}
	res := NewPersister(NewFileStore(blocked), index).Persist(context.Background(), degradedReport(t))

	assert.False(t, res.OK())
	assert.Len(t, res.Errors, 3)
	assert.Empty(t, res.Artifacts)
	for _, err := range res.Errors {
		assert.ErrorIs(t, err, pcerrors.ErrPersistence)
		assert.False(t, pcerrors.IsFatal(err))
	}
	// the index row is still written
	assert.Len(t, index.records, 1)
}

func TestPersistIndexFailure(t *testing.T) {
	index := &fakeIndex{err: errors.New("database is locked")}

	res := NewPersister(NewFileStore(t.TempDir()), index).Persist(context.Background(), degradedReport(t))

	require.Len(t, res.Errors, 1)
	assert.Len(t, res.Artifacts, 3)
}

func TestPersistWithSQLiteIndex(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "products.db"))
	require.NoError(t, err)
	defer s.Close()

	r := degradedReport(t)
	res := NewPersister(NewFileStore(t.TempDir()), s).Persist(context.Background(), r)
	require.True(t, res.OK(), "errors: %v", res.Errors)

	latest, err := s.Latest(context.Background(), store.CategoryRun)
	require.NoError(t, err)
	assert.Equal(t, r.RunID, latest.ID)
	assert.Contains(t, string(latest.Payload), r.RunID)
}

func TestPersistSameRunTwiceKeepsOneRow(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "products.db"))
	require.NoError(t, err)
	defer s.Close()

	r := degradedReport(t)
	p := NewPersister(NewFileStore(t.TempDir()), s)
	require.True(t, p.Persist(context.Background(), r).OK())
	r.Approved = true
	require.True(t, p.Persist(context.Background(), r).OK())

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	row, err := s.Get(context.Background(), r.RunID)
	require.NoError(t, err)
	assert.True(t, row.Approved)
}

func TestLoadLatestMissing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).LoadLatest()
	assert.True(t, os.IsNotExist(err))
}

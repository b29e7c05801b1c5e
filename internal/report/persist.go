package report

import (
	"context"
	"encoding/json"

	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/store"
)

// RunIndex records one row per run, keyed by run ID.
type RunIndex interface {
	Upsert(ctx context.Context, rec *store.ProductRecord) error
}

// PersistResult lists what was written and what failed.
type PersistResult struct {
	Artifacts []string
	Errors    []error
}

func (p PersistResult) OK() bool {
	return len(p.Errors) == 0
}

// Persister writes the run artifacts and the index row. A failure in one
// target never prevents the others.
type Persister struct {
	files *FileStore
	index RunIndex
}

// NewPersister creates a persister. index may be nil to skip the row.
func NewPersister(files *FileStore, index RunIndex) *Persister {
	return &Persister{files: files, index: index}
}

// Persist writes every artifact for r. Errors are logged and collected.
func (p *Persister) Persist(ctx context.Context, r *RunReport) PersistResult {
	var res PersistResult

	writers := []struct {
		target string
		write  func(*RunReport) (string, error)
	}{
		{"JSON run record", p.files.WriteJSON},
		{"text run report", p.files.WriteText},
		{"latest results", p.files.WriteLatest},
	}
	for _, w := range writers {
		path, err := w.write(r)
		if err != nil {
			res.fail(pcerrors.NewPersistenceError(pcerrors.CodePersistenceArtifact, w.target, err).
				WithContext("path", path))
			continue
		}
		res.Artifacts = append(res.Artifacts, path)
		logger.User.Persistf("Saved %s to %s", w.target, path)
	}

	if p.index != nil {
		if err := p.indexRun(ctx, r); err != nil {
			res.fail(err)
		} else {
			logger.Op.WithFields(map[string]interface{}{
				"run_id": r.RunID,
			}).Info("Run indexed")
		}
	}
	return res
}

func (p *Persister) indexRun(ctx context.Context, r *RunReport) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return pcerrors.NewPersistenceError(pcerrors.CodePersistenceStore, "run index row", err)
	}
	return p.index.Upsert(ctx, &store.ProductRecord{
		ID:        r.RunID,
		Name:      "run " + r.RunID,
		Category:  store.CategoryRun,
		Payload:   payload,
		Approved:  r.Approved,
		CreatedAt: r.Timestamp,
	})
}

func (res *PersistResult) fail(err error) {
	res.Errors = append(res.Errors, err)
	logger.User.Warnf("Could not persist: %s", pcerrors.DisplayErrorSummary(err))
	logger.Op.WithFields(map[string]interface{}{
		"error": err.Error(),
	}).Error("Persistence failure")
}

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// LatestFile always holds the summary of the most recent run.
	LatestFile = "last_results.txt"

	fileTimeLayout = "20060102_150405"
)

// FileStore keeps run artifacts in a directory.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (fs *FileStore) baseName(r *RunReport) string {
	return fmt.Sprintf("results_%s_%s", r.Timestamp.UTC().Format(fileTimeLayout), r.ShortID())
}

// WriteJSON stores the JSON record of r and returns its path.
func (fs *FileStore) WriteJSON(r *RunReport) (string, error) {
	data, err := RenderJSON(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(fs.Dir, fs.baseName(r)+".json")
	return path, writeFileAtomic(path, data, 0o644)
}

// WriteText stores the text rendering of r and returns its path.
func (fs *FileStore) WriteText(r *RunReport) (string, error) {
	path := filepath.Join(fs.Dir, fs.baseName(r)+".txt")
	return path, writeFileAtomic(path, []byte(RenderText(r)), 0o644)
}

// WriteLatest replaces the latest-results file with the summary of r.
func (fs *FileStore) WriteLatest(r *RunReport) (string, error) {
	path := filepath.Join(fs.Dir, LatestFile)
	return path, writeFileAtomic(path, []byte(r.Summary), 0o644)
}

// LoadLatest returns the summary of the most recently persisted run.
func (fs *FileStore) LoadLatest() (string, error) {
	data, err := os.ReadFile(filepath.Join(fs.Dir, LatestFile))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// RunFile is a stored JSON run record.
type RunFile struct {
	Path    string
	Name    string
	ModTime time.Time
}

// ListRuns returns stored run records, newest first.
func (fs *FileStore) ListRuns() ([]RunFile, error) {
	matches, err := filepath.Glob(filepath.Join(fs.Dir, "results_*.json"))
	if err != nil {
		return nil, err
	}

	runs := make([]RunFile, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		runs = append(runs, RunFile{Path: m, Name: filepath.Base(m), ModTime: info.ModTime()})
	}
	// names start with a sortable timestamp
	sort.SliceStable(runs, func(i, j int) bool {
		ti, tj := nameTime(runs[i].Name), nameTime(runs[j].Name)
		if ti != tj {
			return ti > tj
		}
		return runs[i].ModTime.After(runs[j].ModTime)
	})
	return runs, nil
}

func nameTime(name string) string {
	name = strings.TrimPrefix(name, "results_")
	if len(name) < len(fileTimeLayout) {
		return name
	}
	return name[:len(fileTimeLayout)]
}

// LoadRun reads a stored JSON run record.
func (fs *FileStore) LoadRun(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode run record %s: %w", path, err)
	}
	return &r, nil
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it into place, so readers never see a partial file.
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

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
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

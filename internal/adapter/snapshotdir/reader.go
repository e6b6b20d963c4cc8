package snapshotdir

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// fileDateLayout is the naming scheme of the daily report files, e.g. 03-22-2020.csv.
const fileDateLayout = "01-02-2006"

// Reader loads daily report files from a directory.
// It implements pipeline.SnapshotSource.
type Reader struct {
	dir    string
	logger *slog.Logger
}

// NewReader creates a Reader for dir.
func NewReader(dir string, logger *slog.Logger) *Reader {
	return &Reader{dir: dir, logger: logger}
}

type reportFile struct {
	path string
	date time.Time
}

// ReadSnapshots returns one snapshot per report file, ordered by the date in
// the file name. The header line of each file is dropped.
func (r *Reader) ReadSnapshots(ctx context.Context) ([]domain.Snapshot, error) {
	files, err := r.list()
	if err != nil {
		return nil, err
	}

	snapshots := make([]domain.Snapshot, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := readRows(f.path)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, domain.Snapshot{ReportDate: f.date, Rows: rows})
	}

	r.logger.Info("snapshots loaded", "dir", r.dir, "files", len(snapshots))
	return snapshots, nil
}

func (r *Reader) list() ([]reportFile, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshot dir: %w", err)
	}

	var files []reportFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		date, err := time.Parse(fileDateLayout, strings.TrimSuffix(name, ".csv"))
		if err != nil {
			r.logger.Debug("skipping file without report date", "file", name)
			continue
		}
		files = append(files, reportFile{path: filepath.Join(r.dir, name), date: date})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].date.Before(files[j].date) })
	return files, nil
}

func readRows(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var rows []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := true
	for sc.Scan() {
		if header {
			header = false
			continue
		}
		rows = append(rows, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

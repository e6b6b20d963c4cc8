package csvfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// IndexFile lists the canonical region names, one quoted name per line.
const IndexFile = "countries.csv"

// Writer renders each region table to <dir>/<region>.csv in the
// space-delimited dashboard format. It implements pipeline.TableSink.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

func (w *Writer) Name() string { return "csv" }

// WriteTables writes every region file and then the region index. Files are
// replaced atomically so a reader never sees a half-written table.
func (w *Writer) WriteTables(ctx context.Context, tables []domain.RegionTable) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	regions := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.replace(FileName(t.Region), t.WriteTo); err != nil {
			return fmt.Errorf("write %q: %w", t.Region, err)
		}
		regions = append(regions, t.Region)
	}

	if err := w.replace(IndexFile, func(out io.Writer) (int64, error) {
		return writeIndex(out, regions)
	}); err != nil {
		return fmt.Errorf("write region index: %w", err)
	}

	w.logger.Info("region tables written", "dir", w.dir, "regions", len(regions))
	return nil
}

func (w *Writer) replace(name string, render func(io.Writer) (int64, error)) error {
	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // already renamed on success

	if _, err := render(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(w.dir, name))
}

func writeIndex(out io.Writer, regions []string) (int64, error) {
	var n int64
	for _, r := range regions {
		m, err := io.WriteString(out, strconv.Quote(r)+"\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// FileName maps a region to its table file name. Path separators are
// replaced so every region stays inside the output directory. A name that
// would collide with IndexFile, ignoring case and trailing underscores,
// gets one more underscore so the mapping stays one-to-one.
func FileName(region string) string {
	base := strings.NewReplacer("/", "-", `\`, "-").Replace(region)
	if strings.EqualFold(strings.TrimRight(base, "_"), strings.TrimSuffix(IndexFile, ".csv")) {
		base += "_"
	}
	return base + ".csv"
}

package chart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// missing is the echarts placeholder for a value that breaks the line.
const missing = "-"

// Renderer draws one HTML page per region: estimated R, new cases, and the
// infectiousness kernel that produced them. It implements pipeline.TableSink.
type Renderer struct {
	dir    string
	kernel domain.Kernel
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing pages to dir.
func NewRenderer(dir string, kernel domain.Kernel, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, kernel: kernel, logger: logger}
}

func (r *Renderer) Name() string { return "chart" }

func (r *Renderer) WriteTables(ctx context.Context, tables []domain.RegionTable) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.writePage(t); err != nil {
			return fmt.Errorf("render %q: %w", t.Region, err)
		}
	}
	r.logger.Info("region charts rendered", "dir", r.dir, "regions", len(tables))
	return nil
}

func (r *Renderer) writePage(t domain.RegionTable) error {
	f, err := os.Create(filepath.Join(r.dir, FileName(t.Region)))
	if err != nil {
		return err
	}
	if err := r.Render(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Render writes the page for one region table to w.
func (r *Renderer) Render(w io.Writer, t domain.RegionTable) error {
	page := components.NewPage()
	page.PageTitle = t.Region
	page.AddCharts(
		reproductionChart(t),
		casesChart(t),
		kernelChart(r.kernel),
	)
	return page.Render(w)
}

func reproductionChart(t domain.RegionTable) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Estimated R", Subtitle: t.Region}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(dates(t)).
		AddSeries("R", column(t, func(row domain.TableRow) domain.NullFloat { return row.EstimatedR })).
		AddSeries("Smoothed R", column(t, func(row domain.TableRow) domain.NullFloat { return row.SmoothedEstimatedR }))
	return line
}

func casesChart(t domain.RegionTable) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "New cases", Subtitle: t.Region}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	line.SetXAxis(dates(t)).
		AddSeries("Smoothed new cases", column(t, func(row domain.TableRow) domain.NullFloat { return row.SmoothedNewCases })).
		AddSeries("Smoothed death-based estimate", column(t, func(row domain.TableRow) domain.NullFloat { return row.SmoothedDeathBasedEstimate }))
	return line
}

func kernelChart(k domain.Kernel) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Infectiousness kernel", Subtitle: "share of new cases by day offset"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	weights := k.Weights()
	offsets := make([]string, len(weights))
	data := make([]opts.BarData, len(weights))
	for i, w := range weights {
		offsets[i] = strconv.Itoa(w.Offset)
		data[i] = opts.BarData{Value: w.Weight}
	}
	bar.SetXAxis(offsets).AddSeries("weight", data)
	return bar
}

func dates(t domain.RegionTable) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Date
	}
	return out
}

func column(t domain.RegionTable, get func(domain.TableRow) domain.NullFloat) []opts.LineData {
	out := make([]opts.LineData, len(t.Rows))
	for i, row := range t.Rows {
		if v := get(row); v.Valid {
			out[i] = opts.LineData{Value: v.Float64}
		} else {
			out[i] = opts.LineData{Value: missing}
		}
	}
	return out
}

// FileName maps a region to its page file name.
func FileName(region string) string {
	return strings.NewReplacer("/", "-", `\`, "-").Replace(region) + ".html"
}

package writer

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"Go2GateSpectra/internal/config"
	"Go2GateSpectra/internal/report"
	"Go2GateSpectra/pkg/logger"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Default figure size, 7x5 inches.
const (
	DefaultWidthCm  = 17.78
	DefaultHeightCm = 12.7
)

// PlotWriter renders every figure of the report as a PNG into its folder
// (Images/, Distribution_plots/, WaitingTimes/, TimeSeries/) below rootPath.
// Folders are created if absent; files of earlier runs are overwritten.
type PlotWriter struct {
	rootPath string
	width    vg.Length
	height   vg.Length
	log      *logger.Logger
}

func NewPlotWriter(rootPath string, cfg config.PlotConfig, log *logger.Logger) *PlotWriter {
	w, h := cfg.WidthCm, cfg.HeightCm
	if w <= 0 {
		w = DefaultWidthCm
	}
	if h <= 0 {
		h = DefaultHeightCm
	}
	return &PlotWriter{
		rootPath: rootPath,
		width:    vg.Length(w) * vg.Centimeter,
		height:   vg.Length(h) * vg.Centimeter,
		log:      log.Named("plot-writer"),
	}
}

func (w *PlotWriter) Name() string { return "plot" }

func (w *PlotWriter) Write(rep *report.Report, timestamp string) error {
	written := 0
	for _, sec := range rep.Sections {
		for _, fig := range sec.Figures {
			dir := filepath.Join(w.rootPath, fig.Folder)
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create figure directory: %w", err)
			}
			path := filepath.Join(dir, fig.Name+".png")
			if err := w.render(fig, path); err != nil {
				return fmt.Errorf("failed to render figure '%s': %w", fig.Name, err)
			}
			written++
		}
	}
	w.log.Info("Figures rendered", logger.Int("figures", written), logger.String("root", w.rootPath))
	return nil
}

func (w *PlotWriter) render(fig report.Figure, path string) error {
	if len(fig.Panels) <= 1 {
		p, err := panelPlot(fig, 0)
		if err != nil {
			return err
		}
		return p.Save(w.width, w.height, path)
	}

	// Panels are stacked vertically and share their x range.
	rows := len(fig.Panels)
	plots := make([][]*plot.Plot, rows)
	for i := range fig.Panels {
		p, err := panelPlot(fig, i)
		if err != nil {
			return err
		}
		p.Title.Text = fig.Panels[i].Label
		if i == 0 {
			p.Title.Text = fig.Title + "\n" + fig.Panels[i].Label
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(w.width, w.height*vg.Length(rows)/2)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      3 * vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(file); err != nil {
		return err
	}
	return nil
}

// panelPlot builds the plot of panel i, or a line plot of the curve when the
// figure has no panels.
func panelPlot(fig report.Figure, i int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = fig.XLabel
	p.Y.Label.Text = fig.YLabel
	p.Add(plotter.NewGrid())

	if i < len(fig.Panels) {
		h := fig.Panels[i]
		bins := make([]plotter.HistogramBin, len(h.Counts))
		for j, c := range h.Counts {
			bins[j] = plotter.HistogramBin{Min: h.Edges[j], Max: h.Edges[j+1], Weight: c}
		}
		width := 0.0
		if len(h.Edges) > 1 {
			width = h.Edges[1] - h.Edges[0]
		}
		p.Add(&plotter.Histogram{
			Bins:      bins,
			Width:     width,
			FillColor: plotutil.Color(i),
			LineStyle: plotter.DefaultLineStyle,
		})
	}

	if len(fig.Curve) > 0 {
		xys := make(plotter.XYs, len(fig.Curve))
		for j, pt := range fig.Curve {
			xys[j].X, xys[j].Y = pt.X, pt.Y
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.Color = color.RGBA{R: 200, A: 255}
		if len(fig.Panels) == 0 {
			line.Color = plotutil.Color(0)
		}
		line.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

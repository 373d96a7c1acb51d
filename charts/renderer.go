package charts

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

var (
	fillBlue  = color.RGBA{R: 70, G: 114, B: 178, A: 255}
	faintBlue = color.RGBA{R: 70, G: 114, B: 178, A: 90}
	lineRed   = color.RGBA{R: 200, G: 54, B: 44, A: 255}
)

// Renderer draws the exploratory charts for a cleaned table into a
// directory of PNG files. A chart whose source data is missing is
// skipped with a warning; the rest still render.
type Renderer struct {
	logger *utils.Logger
	dir    string
}

func NewRenderer(logger *utils.Logger, dir string) *Renderer {
	return &Renderer{logger: logger, dir: dir}
}

// RenderAll draws every chart it has data for and returns the paths
// written. Only the output directory failing to exist is fatal; an
// individual chart failure is logged and the remaining charts render.
func (r *Renderer) RenderAll(t *models.Table, rep *models.InsightReport) ([]string, error) {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, fmt.Errorf("charts: create output dir: %w", err)
	}

	charts := []struct {
		file   string
		render func(path string) (bool, error)
	}{
		{"top10_expensive_neighborhoods.png", func(p string) (bool, error) {
			return r.neighborhoodBars(p, rep.TopExpensive, "Top 10 Most Expensive Neighborhoods")
		}},
		{"top10_affordable_neighborhoods.png", func(p string) (bool, error) {
			return r.neighborhoodBars(p, rep.TopAffordable, "Top 10 Least Expensive Neighborhoods")
		}},
		{"price_by_room_type.png", func(p string) (bool, error) {
			return r.groupedBox(p, t, "room_type", "price", "Price by Room Type", "Room Type", "Price")
		}},
		{"service_fee_vs_price.png", func(p string) (bool, error) {
			return r.scatter(p, t, "service_fee", "price", "Service Fee vs Price", "Service Fee", "Price")
		}},
		{"listings_by_construction_year.png", func(p string) (bool, error) {
			return r.yearLine(p, rep.ListingsPerYear)
		}},
		{"price_by_review_rate.png", func(p string) (bool, error) {
			return r.groupedBox(p, t, "review_rate_number", "price", "Price by Review Rate", "Review Rate Number", "Price")
		}},
		{"review_rate_vs_log_price.png", func(p string) (bool, error) {
			return r.ratingRegression(p, rep.RatingPrices)
		}},
		{"reviews_by_host_verification.png", func(p string) (bool, error) {
			return r.groupedBox(p, t, "host_verified", "number_of_reviews", "Number of Reviews by Host Type", "Host Type", "Number of Reviews")
		}},
		{"reviews_per_month_by_host_verification.png", func(p string) (bool, error) {
			return r.groupedBox(p, t, "host_verified", "reviews_per_month", "Reviews per Month by Host Type", "Host Type", "Reviews per Month")
		}},
	}

	var written []string
	for _, c := range charts {
		path := filepath.Join(r.dir, c.file)
		rendered, err := c.render(path)
		if err != nil {
			r.logger.Error("[charts] %s: %v", c.file, err)
			continue
		}
		if !rendered {
			r.logger.Warn("[charts] Skipping %s: source data not available", c.file)
			continue
		}
		r.logger.Info("[charts] Wrote %s", path)
		written = append(written, path)
	}
	return written, nil
}

// neighborhoodBars draws a horizontal bar chart of mean prices. The
// slice order is reversed so the first entry lands at the top.
func (r *Renderer) neighborhoodBars(path string, means []models.GroupMean, title string) (bool, error) {
	if len(means) == 0 {
		return false, nil
	}

	vals := make(plotter.Values, len(means))
	names := make([]string, len(means))
	for i, gm := range means {
		j := len(means) - 1 - i
		vals[j] = gm.Mean
		names[j] = gm.Group
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Average Price"
	p.Y.Label.Text = "Neighborhood"

	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return false, fmt.Errorf("bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = fillBlue
	p.Add(bars)
	p.NominalY(names...)

	return true, p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// groupedBox draws one box plot per distinct group value.
func (r *Renderer) groupedBox(path string, t *models.Table, groupCol, valueCol, title, xlabel, ylabel string) (bool, error) {
	labels, groups := groupedValues(t, groupCol, valueCol)
	if len(labels) == 0 {
		return false, nil
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	for i, vals := range groups {
		box, err := plotter.NewBoxPlot(vg.Points(40), float64(i), vals)
		if err != nil {
			return false, fmt.Errorf("box plot for %q: %w", labels[i], err)
		}
		p.Add(box)
	}
	p.NominalX(labels...)

	return true, p.Save(8*vg.Inch, 6*vg.Inch, path)
}

// scatter draws yCol against xCol for every row where both are
// numeric.
func (r *Renderer) scatter(path string, t *models.Table, xCol, yCol, title, xlabel, ylabel string) (bool, error) {
	xys := pairedXYs(t, xCol, yCol)
	if len(xys) == 0 {
		return false, nil
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return false, fmt.Errorf("scatter: %w", err)
	}
	s.GlyphStyle.Color = faintBlue
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)

	return true, p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// yearLine draws the listings-per-year trend with point markers.
func (r *Renderer) yearLine(path string, years []models.YearCount) (bool, error) {
	if len(years) == 0 {
		return false, nil
	}

	xys := make(plotter.XYs, len(years))
	for i, yc := range years {
		xys[i].X = float64(yc.Year)
		xys[i].Y = float64(yc.Count)
	}

	p := plot.New()
	p.Title.Text = "Listings by Construction Year"
	p.X.Label.Text = "Construction Year"
	p.Y.Label.Text = "Total Listings"

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return false, fmt.Errorf("line: %w", err)
	}
	line.Color = fillBlue
	points.GlyphStyle.Color = fillBlue
	p.Add(line, points)

	return true, p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// ratingRegression draws the capped log-price scatter with an ordinary
// least squares fit overlaid.
func (r *Renderer) ratingRegression(path string, points []models.RatingPricePoint) (bool, error) {
	if len(points) == 0 {
		return false, nil
	}

	xys := make(plotter.XYs, len(points))
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, pt := range points {
		xys[i].X = pt.Rating
		xys[i].Y = pt.LogPrice
		xs[i] = pt.Rating
		ys[i] = pt.LogPrice
	}

	p := plot.New()
	p.Title.Text = "Review Rate vs Log(Price)"
	p.X.Label.Text = "Review Rate Number"
	p.Y.Label.Text = "Log(Price)"

	s, err := plotter.NewScatter(xys)
	if err != nil {
		return false, fmt.Errorf("scatter: %w", err)
	}
	s.GlyphStyle.Color = faintBlue
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)

	if fit := regressionLine(xs, ys); fit != nil {
		line, err := plotter.NewLine(fit)
		if err != nil {
			return false, fmt.Errorf("regression line: %w", err)
		}
		line.Color = lineRed
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	return true, p.Save(10*vg.Inch, 6*vg.Inch, path)
}

// regressionLine fits y = alpha + beta*x and returns the segment
// spanning the observed x range, or nil when the fit is degenerate
// (fewer than two points, or no variance in x).
func regressionLine(xs, ys []float64) plotter.XYs {
	if len(xs) < 2 {
		return nil
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return nil
	}
	minX, maxX := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
	}
	if minX == maxX {
		return nil
	}
	return plotter.XYs{
		{X: minX, Y: alpha + beta*minX},
		{X: maxX, Y: alpha + beta*maxX},
	}
}

// pairedXYs collects one point per row where xCol and yCol both hold
// numbers. Either column missing yields an empty set.
func pairedXYs(t *models.Table, xCol, yCol string) plotter.XYs {
	xIdx, ok := t.ColumnIndex(xCol)
	if !ok {
		return nil
	}
	yIdx, ok := t.ColumnIndex(yCol)
	if !ok {
		return nil
	}

	var xys plotter.XYs
	for row := 0; row < t.NumRows(); row++ {
		x, ok := t.CellAt(row, xIdx).Float()
		if !ok {
			continue
		}
		y, ok := t.CellAt(row, yIdx).Float()
		if !ok {
			continue
		}
		xys = append(xys, plotter.XY{X: x, Y: y})
	}
	return xys
}

// groupedValues collects the numeric values of valueCol per distinct
// groupCol value. Labels sort numerically when every label parses as a
// number, alphabetically otherwise; groups without a single numeric
// value are left out.
func groupedValues(t *models.Table, groupCol, valueCol string) ([]string, []plotter.Values) {
	gIdx, ok := t.ColumnIndex(groupCol)
	if !ok {
		return nil, nil
	}
	vIdx, ok := t.ColumnIndex(valueCol)
	if !ok {
		return nil, nil
	}

	byLabel := make(map[string]plotter.Values)
	for row := 0; row < t.NumRows(); row++ {
		group := t.CellAt(row, gIdx)
		if group.IsNull() {
			continue
		}
		v, ok := t.CellAt(row, vIdx).Float()
		if !ok {
			continue
		}
		label := group.Display()
		byLabel[label] = append(byLabel[label], v)
	}
	if len(byLabel) == 0 {
		return nil, nil
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sortLabels(labels)

	groups := make([]plotter.Values, len(labels))
	for i, label := range labels {
		groups[i] = byLabel[label]
	}
	return labels, groups
}

func sortLabels(labels []string) {
	nums := make(map[string]float64, len(labels))
	allNumeric := true
	for _, label := range labels {
		f, err := strconv.ParseFloat(label, 64)
		if err != nil {
			allNumeric = false
			break
		}
		nums[label] = f
	}
	sort.Slice(labels, func(i, j int) bool {
		if allNumeric {
			return nums[labels[i]] < nums[labels[j]]
		}
		return labels[i] < labels[j]
	})
}

package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// InsightService computes summary statistics over a cleaned listings
// table. Insights whose source columns are absent come back empty and
// the printer says so instead of failing.
type InsightService struct {
	logger      *utils.Logger
	topN        int
	capQuantile float64
}

// NewInsightService builds the insight generator; a non-positive topN
// or a cap quantile outside (0, 1] falls back to the defaults.
func NewInsightService(logger *utils.Logger, topN int, capQuantile float64) *InsightService {
	if topN <= 0 {
		topN = 10
	}
	if capQuantile <= 0 || capQuantile > 1 || math.IsNaN(capQuantile) {
		logger.Warn("[insights] Price cap quantile %v is outside (0, 1], using 0.99", capQuantile)
		capQuantile = 0.99
	}
	return &InsightService{logger: logger, topN: topN, capQuantile: capQuantile}
}

func (s *InsightService) Generate(t *models.Table) *models.InsightReport {
	report := &models.InsightReport{TotalRows: t.NumRows()}
	if t.NumRows() == 0 {
		return report
	}

	report.RoomTypes = valueCounts(t, "room_type")
	report.StrictPolicyRoomType = s.strictPolicyRoomType(t)

	groupPrices := groupMeans(t, "neighborhood_group", "price")
	report.NeighborhoodGroupPrices = topByMean(groupPrices, len(groupPrices), true)

	byNeighborhood := groupMeans(t, "neighborhood", "price")
	report.TopExpensive = topByMean(byNeighborhood, s.topN, true)
	report.TopAffordable = topByMean(byNeighborhood, s.topN, false)

	report.ListingsPerYear = yearCounts(t, "construction_year")
	report.RatingPrices, report.PriceCap = s.ratingPricePoints(t)

	s.logger.Info("[insights] Generated report for %d listings", report.TotalRows)
	return report
}

// valueCounts tallies the non-null values of a column, most frequent
// first with ties broken alphabetically.
func valueCounts(t *models.Table, column string) []models.CategoryCount {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for r := 0; r < t.NumRows(); r++ {
		cell := t.CellAt(r, idx)
		if cell.IsNull() {
			continue
		}
		counts[cell.Display()]++
	}
	out := make([]models.CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, models.CategoryCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// strictPolicyRoomType finds the most common room type among listings
// whose cancellation policy reads "strict" (case-insensitive). Empty
// string when no listing qualifies.
func (s *InsightService) strictPolicyRoomType(t *models.Table) string {
	polIdx, ok := t.ColumnIndex("cancellation_policy")
	if !ok {
		return ""
	}
	roomIdx, ok := t.ColumnIndex("room_type")
	if !ok {
		return ""
	}

	counts := make(map[string]int)
	for r := 0; r < t.NumRows(); r++ {
		pol := t.CellAt(r, polIdx)
		if pol.Kind != models.KindText || strings.ToLower(pol.Text) != "strict" {
			continue
		}
		room := t.CellAt(r, roomIdx)
		if room.IsNull() {
			continue
		}
		counts[room.Display()]++
	}

	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && bestCount > 0 && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// groupMeans averages valueCol per distinct groupCol value. Rows with
// a null group are ignored, null values do not enter the mean, and
// groups with no numeric values at all are left out. Sorted by group
// name.
func groupMeans(t *models.Table, groupCol, valueCol string) []models.GroupMean {
	gIdx, ok := t.ColumnIndex(groupCol)
	if !ok {
		return nil
	}
	vIdx, ok := t.ColumnIndex(valueCol)
	if !ok {
		return nil
	}

	type acc struct {
		sum   float64
		count int
	}
	accs := make(map[string]*acc)
	for r := 0; r < t.NumRows(); r++ {
		group := t.CellAt(r, gIdx)
		if group.IsNull() {
			continue
		}
		f, ok := t.CellAt(r, vIdx).Float()
		if !ok {
			continue
		}
		key := group.Display()
		a := accs[key]
		if a == nil {
			a = &acc{}
			accs[key] = a
		}
		a.sum += f
		a.count++
	}

	out := make([]models.GroupMean, 0, len(accs))
	for g, a := range accs {
		out = append(out, models.GroupMean{Group: g, Mean: round2(a.sum / float64(a.count)), Count: a.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// topByMean returns the n groups with the highest (or lowest) mean,
// ties broken by group name.
func topByMean(means []models.GroupMean, n int, highest bool) []models.GroupMean {
	sorted := make([]models.GroupMean, len(means))
	copy(sorted, means)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Mean != sorted[j].Mean {
			if highest {
				return sorted[i].Mean > sorted[j].Mean
			}
			return sorted[i].Mean < sorted[j].Mean
		}
		return sorted[i].Group < sorted[j].Group
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// yearCounts tallies listings per construction year, earliest first.
func yearCounts(t *models.Table, column string) []models.YearCount {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	counts := make(map[int]int)
	for r := 0; r < t.NumRows(); r++ {
		if f, ok := t.CellAt(r, idx).Float(); ok {
			counts[int(math.Round(f))]++
		}
	}
	out := make([]models.YearCount, 0, len(counts))
	for y, n := range counts {
		out = append(out, models.YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// ratingPricePoints collects (rating, price) pairs for the regression
// view. The cap is the configured quantile of the paired prices, so a
// few luxury outliers do not flatten the fit; non-positive prices are
// dropped because the view works in log space.
func (s *InsightService) ratingPricePoints(t *models.Table) ([]models.RatingPricePoint, float64) {
	rIdx, ok := t.ColumnIndex("review_rate_number")
	if !ok {
		return nil, 0
	}
	pIdx, ok := t.ColumnIndex("price")
	if !ok {
		return nil, 0
	}

	type pair struct{ rating, price float64 }
	var pairs []pair
	var prices []float64
	for r := 0; r < t.NumRows(); r++ {
		rating, ok := t.CellAt(r, rIdx).Float()
		if !ok {
			continue
		}
		price, ok := t.CellAt(r, pIdx).Float()
		if !ok {
			continue
		}
		pairs = append(pairs, pair{rating, price})
		prices = append(prices, price)
	}
	if len(pairs) == 0 {
		return nil, 0
	}

	sort.Float64s(prices)
	priceCap := stat.Quantile(s.capQuantile, stat.LinInterp, prices, nil)

	out := make([]models.RatingPricePoint, 0, len(pairs))
	for _, p := range pairs {
		if p.price > priceCap || p.price <= 0 {
			continue
		}
		out = append(out, models.RatingPricePoint{
			Rating:   p.rating,
			Price:    p.price,
			LogPrice: math.Log(p.price),
		})
	}
	return out, priceCap
}

// PrintPreview renders the post-load shape of the table: dimensions,
// per-column kind and null counts, and the first few rows.
func (s *InsightService) PrintPreview(t *models.Table, rows int) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🧾 DATASET PREVIEW\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("  Shape : \033[1m%d rows × %d columns\033[0m\n\n", t.NumRows(), t.NumCols())

	fmt.Printf("\033[1;33m  Columns\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, cs := range t.Summarize() {
		fmt.Printf("  %-28s %-7s %d non-null, %d missing\n", truncate(cs.Name, 26), cs.Kind, cs.NonNull, cs.Missing)
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  First %d rows\033[0m\n", rows)
	fmt.Printf("  %s\n", thin)
	for i, row := range t.Head(rows) {
		fmt.Printf("  \033[1m%d.\033[0m %s\n", i+1, truncate(strings.Join(row, " | "), 100))
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
}

// PrintCleaningReport summarizes what the pipeline did: per-step
// shapes, skipped steps and the missing-value audit.
func (s *InsightService) PrintCleaningReport(rep *models.CleaningReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🧹 CLEANING REPORT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Steps\033[0m\n")
	fmt.Printf("  %s\n", thin)
	for _, step := range rep.Steps {
		if step.Applied {
			fmt.Printf("  \033[1;32m✔\033[0m %-34s %d×%d → %d×%d\n",
				step.Name, step.RowsBefore, step.ColsBefore, step.RowsAfter, step.ColsAfter)
		} else {
			fmt.Printf("  \033[1;33m↷\033[0m %-34s skipped: %s\n", step.Name, step.Reason)
		}
	}
	fmt.Println()

	fmt.Printf("\033[1;33m  Missing Values\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(rep.MissingByColumn) == 0 {
		fmt.Printf("  No audit data\n")
	} else {
		for _, mc := range rep.MissingByColumn {
			if mc.Missing == 0 {
				continue
			}
			fmt.Printf("  %-28s \033[1m%d\033[0m\n", truncate(mc.Column, 26), mc.Missing)
		}
	}
	fmt.Println()

	fmt.Printf("  Duplicate rows removed : \033[1m%d\033[0m\n", rep.DuplicatesRemoved)
	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 AIRBNB LISTINGS INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total listings : \033[1m%d\033[0m\n", r.TotalRows)
	fmt.Println()

	// Room type mix
	fmt.Printf("\033[1;33m  Room Type Mix\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.RoomTypes) == 0 {
		fmt.Printf("  No room type data\n")
	} else {
		max := r.RoomTypes[0].Count
		for _, rt := range r.RoomTypes {
			fmt.Printf("  %-20s %s (%d)\n", truncate(rt.Value, 18), bar(rt.Count, max, 30), rt.Count)
		}
	}
	fmt.Println()

	// Strict cancellation
	fmt.Printf("\033[1;33m  Most Common Room Type (strict cancellation)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.StrictPolicyRoomType == "" {
		fmt.Printf("  No strict-policy listings\n")
	} else {
		fmt.Printf("  \033[1;32m%s\033[0m\n", r.StrictPolicyRoomType)
	}
	fmt.Println()

	// Borough price levels
	fmt.Printf("\033[1;33m  Average Price by Neighborhood Group\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.NeighborhoodGroupPrices) == 0 {
		fmt.Printf("  No price data\n")
	} else {
		for _, gm := range r.NeighborhoodGroupPrices {
			fmt.Printf("  %-20s \033[1;32m$%.2f\033[0m (%d listings)\n", truncate(gm.Group, 18), gm.Mean, gm.Count)
		}
	}
	fmt.Println()

	// Neighborhood extremes
	fmt.Printf("\033[1;33m  Top %d Most Expensive Neighborhoods\033[0m\n", len(r.TopExpensive))
	fmt.Printf("  %s\n", thin)
	printRankedMeans(r.TopExpensive, "\033[1;31m")
	fmt.Println()

	fmt.Printf("\033[1;33m  Top %d Most Affordable Neighborhoods\033[0m\n", len(r.TopAffordable))
	fmt.Printf("  %s\n", thin)
	printRankedMeans(r.TopAffordable, "\033[1;32m")
	fmt.Println()

	// Construction years
	fmt.Printf("\033[1;33m  Listings by Construction Year\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ListingsPerYear) == 0 {
		fmt.Printf("  No construction year data\n")
	} else {
		max := 0
		for _, yc := range r.ListingsPerYear {
			if yc.Count > max {
				max = yc.Count
			}
		}
		for _, yc := range r.ListingsPerYear {
			fmt.Printf("  %d %s (%d)\n", yc.Year, bar(yc.Count, max, 30), yc.Count)
		}
	}
	fmt.Println()

	// Rating vs price
	fmt.Printf("\033[1;33m  Rating vs Price\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.RatingPrices) == 0 {
		fmt.Printf("  No rating/price pairs\n")
	} else {
		fmt.Printf("  Price cap applied : \033[1m$%.2f\033[0m\n", r.PriceCap)
		fmt.Printf("  Points within cap : \033[1m%d\033[0m\n", len(r.RatingPrices))
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func printRankedMeans(means []models.GroupMean, color string) {
	if len(means) == 0 {
		fmt.Printf("  No neighborhood data\n")
		return
	}
	for i, gm := range means {
		fmt.Printf("  \033[1m%2d.\033[0m %-30s %s$%.2f\033[0m\n", i+1, truncate(gm.Group, 28), color, gm.Mean)
	}
}

// bar renders a proportional block bar capped at width characters.
func bar(count, max, width int) string {
	if max <= 0 || count <= 0 {
		return ""
	}
	n := count * width / max
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

package models

// StepResult records one pipeline step: whether it ran, why it was skipped,
// and the table shape on either side. Skips are data-driven (a required
// column was absent), never silent.
type StepResult struct {
	Name       string
	Applied    bool
	Reason     string // populated when skipped
	Note       string // free-form detail, e.g. "dropped 2 columns"
	RowsBefore int
	RowsAfter  int
	ColsBefore int
	ColsAfter  int
}

// ColumnMissing pairs a column with its missing-cell count.
type ColumnMissing struct {
	Column  string
	Missing int
}

// CleaningReport is the audit trail of one pipeline run.
type CleaningReport struct {
	Steps             []StepResult
	MissingByColumn   []ColumnMissing // descending by count
	DuplicatesRemoved int
}

// SkippedSteps returns the names of steps that did not run.
func (r *CleaningReport) SkippedSteps() []string {
	var out []string
	for _, s := range r.Steps {
		if !s.Applied {
			out = append(out, s.Name)
		}
	}
	return out
}

// CategoryCount pairs a categorical value with its occurrence count.
type CategoryCount struct {
	Value string
	Count int
}

// GroupMean is the mean of a numeric column within one group, with the
// number of non-null rows that contributed.
type GroupMean struct {
	Group string
	Mean  float64
	Count int
}

// YearCount is the number of listings built in one construction year.
type YearCount struct {
	Year  int
	Count int
}

// RatingPricePoint is one (review rate, price) observation that survived the
// outlier cap, with the natural log of price precomputed for plotting.
type RatingPricePoint struct {
	Rating   float64
	Price    float64
	LogPrice float64
}

// InsightReport holds the computed analytics over the cleaned dataset. The
// neighborhood lists, the per-year counts and the rating/price points are the
// aggregates the chart renderer consumes; the rest feeds the console report.
type InsightReport struct {
	TotalRows int

	// Room type distribution, count descending (ties by value).
	RoomTypes []CategoryCount

	// Room type most frequent among listings with a strict cancellation
	// policy; empty when the inputs are absent or no such listing exists.
	StrictPolicyRoomType string

	// Mean price per neighborhood group, most expensive first.
	NeighborhoodGroupPrices []GroupMean

	// Per-neighborhood mean price: the N most expensive (descending) and the
	// N most affordable (ascending). Disjoint whenever 2N groups exist.
	TopExpensive  []GroupMean
	TopAffordable []GroupMean

	// Listings per construction year, ascending by year.
	ListingsPerYear []YearCount

	// Rating/price pairs with the top price tail removed and non-positive
	// prices excluded from the log transform.
	RatingPrices []RatingPricePoint
	// PriceCap is the quantile cap applied to RatingPrices, 0 when unset.
	PriceCap float64
}

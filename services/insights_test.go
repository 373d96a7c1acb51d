package services

import (
	"math"
	"testing"

	"airbnb-cleaner/models"
)

func insightRow(t *testing.T, tb *models.Table, vals ...any) {
	t.Helper()
	cells := make([]models.Cell, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			cells[i] = models.NullCell()
		case string:
			cells[i] = models.TextCell(x)
		case int:
			cells[i] = models.NumberCell(float64(x))
		case float64:
			cells[i] = models.NumberCell(x)
		default:
			t.Fatalf("unsupported fixture value %T", v)
		}
	}
	if err := tb.AppendRow(cells); err != nil {
		t.Fatalf("AppendRow: %v", err)
	}
}

// sampleTable resembles a table after cleaning: prices and ratings are
// numeric, text columns keep their raw labels, gaps are null.
func sampleTable(t *testing.T) *models.Table {
	t.Helper()
	tb := models.NewTable([]string{
		"room_type", "cancellation_policy", "neighborhood_group",
		"neighborhood", "price", "construction_year", "review_rate_number",
	})
	insightRow(t, tb, "Entire home/apt", "strict", "Manhattan", "Harlem", 100, 2005, 4)
	insightRow(t, tb, "Private room", "Strict", "Brooklyn", "Williamsburg", 50, 2010, 3)
	insightRow(t, tb, "Entire home/apt", "moderate", "Manhattan", "Chelsea", 300, 2005, 5)
	insightRow(t, tb, "Private room", "flexible", "Brooklyn", "Williamsburg", 70, nil, nil)
	insightRow(t, tb, "Entire home/apt", "strict", "Manhattan", "Harlem", 200, 2010, 4)
	insightRow(t, tb, "Shared room", nil, "Queens", "Astoria", 40, 2003, 2)
	insightRow(t, tb, "Private room", "strict", "Brooklyn", "Bushwick", nil, 2010, 5)
	insightRow(t, tb, nil, "strict", nil, nil, 1000, 2022, 1)
	return tb
}

func newInsightService() *InsightService {
	return NewInsightService(newTestLogger(), 10, 0.99)
}

func TestInsightRoomTypes(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))
	if r.TotalRows != 8 {
		t.Errorf("TotalRows: got %d, want 8", r.TotalRows)
	}

	want := []models.CategoryCount{
		{Value: "Entire home/apt", Count: 3},
		{Value: "Private room", Count: 3},
		{Value: "Shared room", Count: 1},
	}
	if len(r.RoomTypes) != len(want) {
		t.Fatalf("RoomTypes len: got %d, want %d", len(r.RoomTypes), len(want))
	}
	for i := range want {
		if r.RoomTypes[i] != want[i] {
			t.Errorf("RoomTypes[%d]: got %+v, want %+v", i, r.RoomTypes[i], want[i])
		}
	}
}

func TestInsightStrictPolicyRoomType(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))
	// Entire home/apt and Private room tie at 2 strict listings each;
	// the alphabetically first wins.
	if r.StrictPolicyRoomType != "Entire home/apt" {
		t.Errorf("StrictPolicyRoomType: got %q, want %q", r.StrictPolicyRoomType, "Entire home/apt")
	}
}

func TestInsightStrictPolicyNoMatches(t *testing.T) {
	tb := models.NewTable([]string{"room_type", "cancellation_policy"})
	insightRow(t, tb, "Private room", "moderate")
	r := newInsightService().Generate(tb)
	if r.StrictPolicyRoomType != "" {
		t.Errorf("StrictPolicyRoomType: got %q, want empty", r.StrictPolicyRoomType)
	}
}

func TestInsightNeighborhoodGroupPrices(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))
	want := []models.GroupMean{
		{Group: "Manhattan", Mean: 200, Count: 3},
		{Group: "Brooklyn", Mean: 60, Count: 2},
		{Group: "Queens", Mean: 40, Count: 1},
	}
	if len(r.NeighborhoodGroupPrices) != len(want) {
		t.Fatalf("NeighborhoodGroupPrices len: got %d, want %d", len(r.NeighborhoodGroupPrices), len(want))
	}
	for i := range want {
		if r.NeighborhoodGroupPrices[i] != want[i] {
			t.Errorf("NeighborhoodGroupPrices[%d]: got %+v, want %+v", i, r.NeighborhoodGroupPrices[i], want[i])
		}
	}
}

func TestInsightNeighborhoodExtremes(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))

	wantExpensive := []string{"Chelsea", "Harlem", "Williamsburg", "Astoria"}
	if len(r.TopExpensive) != len(wantExpensive) {
		t.Fatalf("TopExpensive len: got %d, want %d", len(r.TopExpensive), len(wantExpensive))
	}
	for i, name := range wantExpensive {
		if r.TopExpensive[i].Group != name {
			t.Errorf("TopExpensive[%d]: got %q, want %q", i, r.TopExpensive[i].Group, name)
		}
	}

	wantAffordable := []string{"Astoria", "Williamsburg", "Harlem", "Chelsea"}
	for i, name := range wantAffordable {
		if r.TopAffordable[i].Group != name {
			t.Errorf("TopAffordable[%d]: got %q, want %q", i, r.TopAffordable[i].Group, name)
		}
	}

	// Bushwick has no priced listings and must not appear at all.
	for _, gm := range r.TopExpensive {
		if gm.Group == "Bushwick" {
			t.Error("neighborhood without priced listings should be excluded")
		}
	}
}

func TestInsightTopNLimit(t *testing.T) {
	tb := models.NewTable([]string{"neighborhood", "price"})
	for i := 0; i < 25; i++ {
		insightRow(t, tb, string(rune('a'+i)), (i+1)*10)
	}
	svc := NewInsightService(newTestLogger(), 10, 0.99)
	r := svc.Generate(tb)
	if len(r.TopExpensive) != 10 {
		t.Errorf("TopExpensive len: got %d, want 10", len(r.TopExpensive))
	}
	if len(r.TopAffordable) != 10 {
		t.Errorf("TopAffordable len: got %d, want 10", len(r.TopAffordable))
	}
	// With 25 distinct means the two rankings must not overlap.
	seen := make(map[string]bool)
	for _, gm := range r.TopExpensive {
		seen[gm.Group] = true
	}
	for _, gm := range r.TopAffordable {
		if seen[gm.Group] {
			t.Errorf("neighborhood %q appears in both rankings", gm.Group)
		}
	}
	for i := 1; i < len(r.TopExpensive); i++ {
		if r.TopExpensive[i-1].Mean < r.TopExpensive[i].Mean {
			t.Error("TopExpensive not sorted by mean descending")
		}
	}
	for i := 1; i < len(r.TopAffordable); i++ {
		if r.TopAffordable[i-1].Mean > r.TopAffordable[i].Mean {
			t.Error("TopAffordable not sorted by mean ascending")
		}
	}
}

func TestInsightListingsPerYear(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))
	want := []models.YearCount{
		{Year: 2003, Count: 1},
		{Year: 2005, Count: 2},
		{Year: 2010, Count: 3},
		{Year: 2022, Count: 1},
	}
	if len(r.ListingsPerYear) != len(want) {
		t.Fatalf("ListingsPerYear len: got %d, want %d", len(r.ListingsPerYear), len(want))
	}
	for i := range want {
		if r.ListingsPerYear[i] != want[i] {
			t.Errorf("ListingsPerYear[%d]: got %+v, want %+v", i, r.ListingsPerYear[i], want[i])
		}
	}
}

func TestInsightRatingPricesCapsOutliers(t *testing.T) {
	r := newInsightService().Generate(sampleTable(t))

	// Sorted prices run 40..1000; the 0.99 quantile falls between the
	// two largest samples, so only the $1000 outlier is cut.
	if r.PriceCap <= 300 || r.PriceCap >= 1000 {
		t.Errorf("PriceCap: got %v, want a value between 300 and 1000", r.PriceCap)
	}
	if len(r.RatingPrices) != 5 {
		t.Fatalf("RatingPrices len: got %d, want 5", len(r.RatingPrices))
	}
	first := r.RatingPrices[0]
	if first.Rating != 4 || first.Price != 100 {
		t.Errorf("RatingPrices[0]: got %+v, want rating 4 price 100", first)
	}
	if math.Abs(first.LogPrice-math.Log(100)) > 1e-12 {
		t.Errorf("LogPrice: got %v, want ln(100)", first.LogPrice)
	}
	for _, p := range r.RatingPrices {
		if p.Price > r.PriceCap {
			t.Errorf("point with price %v exceeds cap %v", p.Price, r.PriceCap)
		}
	}
}

func TestInsightPriceCapRemovesTopPercent(t *testing.T) {
	tb := models.NewTable([]string{"review_rate_number", "price"})
	for i := 1; i <= 100; i++ {
		insightRow(t, tb, 3, i)
	}
	r := newInsightService().Generate(tb)
	if r.PriceCap < 99 || r.PriceCap >= 100 {
		t.Errorf("PriceCap: got %v, want within [99, 100)", r.PriceCap)
	}
	if len(r.RatingPrices) != 99 {
		t.Errorf("RatingPrices len: got %d, want 99", len(r.RatingPrices))
	}
}

func TestInsightQuantileOutOfRangeFallsBack(t *testing.T) {
	// A percent typo like 99 must not reach the quantile computation,
	// which only accepts probabilities; the default cap applies instead.
	for _, q := range []float64{99, -0.5, 0, 1.5, math.NaN()} {
		svc := NewInsightService(newTestLogger(), 10, q)
		r := svc.Generate(sampleTable(t))
		if r.PriceCap <= 300 || r.PriceCap >= 1000 {
			t.Errorf("quantile %v: PriceCap = %v, want the default cap between 300 and 1000", q, r.PriceCap)
		}
		if len(r.RatingPrices) != 5 {
			t.Errorf("quantile %v: RatingPrices len = %d, want 5", q, len(r.RatingPrices))
		}
	}
}

func TestInsightQuantileFullRangeKeepsAll(t *testing.T) {
	svc := NewInsightService(newTestLogger(), 10, 1)
	r := svc.Generate(sampleTable(t))
	if r.PriceCap != 1000 {
		t.Errorf("PriceCap at quantile 1: got %v, want 1000", r.PriceCap)
	}
	if len(r.RatingPrices) != 6 {
		t.Errorf("RatingPrices len: got %d, want 6", len(r.RatingPrices))
	}
}

func TestInsightEmptyTable(t *testing.T) {
	tb := models.NewTable([]string{"room_type"})
	r := newInsightService().Generate(tb)
	if r.TotalRows != 0 {
		t.Errorf("TotalRows: got %d, want 0", r.TotalRows)
	}
	if len(r.RoomTypes) != 0 || len(r.TopExpensive) != 0 {
		t.Error("empty table should produce an empty report")
	}
}

func TestInsightMissingColumns(t *testing.T) {
	tb := models.NewTable([]string{"name"})
	insightRow(t, tb, "loft")
	r := newInsightService().Generate(tb)
	if len(r.RoomTypes) != 0 {
		t.Error("RoomTypes should be empty without a room_type column")
	}
	if len(r.NeighborhoodGroupPrices) != 0 {
		t.Error("NeighborhoodGroupPrices should be empty without source columns")
	}
	if r.PriceCap != 0 || len(r.RatingPrices) != 0 {
		t.Error("RatingPrices should be empty without source columns")
	}
}

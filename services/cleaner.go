package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"airbnb-cleaner/models"
	"airbnb-cleaner/utils"
)

// currencyRegexp matches the characters stripped from currency cells
// before numeric conversion ("$1,234.50" becomes "1234.50").
var currencyRegexp = regexp.MustCompile(`[$,]`)

// ParsePolicy controls how a numeric conversion step treats cells that
// cannot be parsed.
type ParsePolicy int

const (
	// PolicyStrict aborts the pipeline on the first unparseable cell.
	PolicyStrict ParsePolicy = iota
	// PolicyCoerce replaces unparseable cells with null and keeps going.
	PolicyCoerce
)

func (p ParsePolicy) String() string {
	if p == PolicyCoerce {
		return "coerce"
	}
	return "strict"
}

// ParsePolicyFromString parses "strict" or "coerce" (case-insensitive).
func ParsePolicyFromString(s string) (ParsePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return PolicyStrict, nil
	case "coerce":
		return PolicyCoerce, nil
	default:
		return PolicyStrict, fmt.Errorf("unknown parse policy %q (want strict or coerce)", s)
	}
}

// Column groups handled by the pipeline. Currency columns default to
// strict because a malformed price means the file itself is suspect;
// the looser metric columns default to coerce.
var (
	droppedColumns  = []string{"host_id", "id", "country", "country_code"}
	currencyColumns = []string{"price", "service_fee"}
	numericColumns  = []string{
		"review_rate_number",
		"number_of_reviews",
		"reviews_per_month",
		"construction_year",
		"availability_365",
	}
)

// Cleaner normalizes a raw listings table in place: canonical headers,
// identifier pruning, duplicate removal, numeric conversion and the
// derived columns downstream reporting expects.
type Cleaner struct {
	logger   *utils.Logger
	policies map[string]ParsePolicy
}

// NewCleaner builds a Cleaner with the default per-column parse
// policies, applying any overrides from configuration. An override
// with a bad value is a hard error; an override naming a column the
// pipeline never converts only gets a warning.
func NewCleaner(logger *utils.Logger, overrides map[string]string) (*Cleaner, error) {
	policies := make(map[string]ParsePolicy, len(currencyColumns)+len(numericColumns))
	for _, col := range currencyColumns {
		policies[col] = PolicyStrict
	}
	for _, col := range numericColumns {
		policies[col] = PolicyCoerce
	}

	for col, val := range overrides {
		policy, err := ParsePolicyFromString(val)
		if err != nil {
			return nil, fmt.Errorf("parse policy for column %q: %w", col, err)
		}
		if _, known := policies[col]; !known {
			logger.Warn("[cleaner] Policy override for %q has no effect: the pipeline does not convert that column", col)
		}
		policies[col] = policy
	}

	return &Cleaner{logger: logger, policies: policies}, nil
}

// Policy reports the effective parse policy for a column.
func (c *Cleaner) Policy(col string) ParsePolicy {
	return c.policies[col]
}

// pipelineStep is one named transformation. A step whose required
// column is absent is skipped and recorded, not failed, so the
// pipeline degrades predictably on partial exports.
type pipelineStep struct {
	name     string
	requires []string
	run      func(t *models.Table, rep *models.CleaningReport, res *models.StepResult) error
}

// Clean runs the full pipeline against t, mutating it in place, and
// returns a report of what every step did. A strict conversion failure
// aborts and returns the partial report alongside the error.
func (c *Cleaner) Clean(t *models.Table) (*models.CleaningReport, error) {
	rep := &models.CleaningReport{}

	steps := []pipelineStep{
		{name: "normalize_headers", run: c.normalizeHeaders},
		{name: "prune_columns", run: c.pruneColumns},
		{name: "audit_missing", run: c.auditMissing},
		{name: "drop_duplicates", run: c.dropDuplicates},
	}
	for _, col := range currencyColumns {
		col := col
		steps = append(steps, pipelineStep{
			name:     "parse_currency:" + col,
			requires: []string{col},
			run: func(t *models.Table, rep *models.CleaningReport, res *models.StepResult) error {
				return c.parseNumericColumn(t, col, currencyRegexp, res)
			},
		})
	}
	for _, col := range numericColumns {
		col := col
		steps = append(steps, pipelineStep{
			name:     "coerce_numeric:" + col,
			requires: []string{col},
			run: func(t *models.Table, rep *models.CleaningReport, res *models.StepResult) error {
				return c.parseNumericColumn(t, col, nil, res)
			},
		})
	}
	steps = append(steps,
		pipelineStep{name: "derive:days_booked", requires: []string{"availability_365"}, run: c.deriveDaysBooked},
		pipelineStep{name: "derive:is_superhost", requires: []string{"host_is_superhost"}, run: c.deriveSuperhost},
		pipelineStep{name: "derive:host_verified", requires: []string{"host_identity_verified"}, run: c.deriveHostVerified},
	)

	for _, step := range steps {
		res := models.StepResult{
			Name:       step.name,
			RowsBefore: t.NumRows(),
			ColsBefore: t.NumCols(),
		}
		if col, ok := missingRequirement(t, step.requires); !ok {
			res.Applied = false
			res.Reason = fmt.Sprintf("column %q not present", col)
			res.RowsAfter = res.RowsBefore
			res.ColsAfter = res.ColsBefore
			rep.Steps = append(rep.Steps, res)
			c.logger.Warn("[cleaner] Skipping %s: %s", step.name, res.Reason)
			continue
		}
		if err := step.run(t, rep, &res); err != nil {
			return rep, fmt.Errorf("cleaner: %s: %w", step.name, err)
		}
		res.Applied = true
		res.RowsAfter = t.NumRows()
		res.ColsAfter = t.NumCols()
		rep.Steps = append(rep.Steps, res)
		if res.Note != "" {
			c.logger.Info("[cleaner] %s: %s", step.name, res.Note)
		}
	}

	c.logger.Info("[cleaner] Pipeline finished: %d rows × %d columns", t.NumRows(), t.NumCols())
	return rep, nil
}

// missingRequirement returns the first required column not present in
// the table.
func missingRequirement(t *models.Table, requires []string) (string, bool) {
	for _, col := range requires {
		if !t.HasColumn(col) {
			return col, false
		}
	}
	return "", true
}

// normalizeHeader maps a raw header to its canonical form: lower case,
// trimmed, spaces as underscores, and the British "neighbourhood"
// folded to "neighborhood".
func normalizeHeader(name string) string {
	s := strings.ToLower(name)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "neighbourhood", "neighborhood")
	return s
}

func (c *Cleaner) normalizeHeaders(t *models.Table, _ *models.CleaningReport, res *models.StepResult) error {
	before := t.Columns()
	t.RenameColumns(normalizeHeader)
	after := t.Columns()

	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
		}
	}
	res.Note = fmt.Sprintf("renamed %d of %d headers", changed, len(after))
	return nil
}

func (c *Cleaner) pruneColumns(t *models.Table, _ *models.CleaningReport, res *models.StepResult) error {
	dropped := t.DropColumns(droppedColumns...)
	if len(dropped) == 0 {
		res.Note = "no identifier columns present"
		return nil
	}
	res.Note = fmt.Sprintf("dropped %s", strings.Join(dropped, ", "))
	return nil
}

func (c *Cleaner) auditMissing(t *models.Table, rep *models.CleaningReport, res *models.StepResult) error {
	counts := make([]models.ColumnMissing, 0, t.NumCols())
	withMissing := 0
	for _, col := range t.Columns() {
		n := t.MissingCount(col)
		if n > 0 {
			withMissing++
		}
		counts = append(counts, models.ColumnMissing{Column: col, Missing: n})
	}
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Missing > counts[j].Missing
	})
	rep.MissingByColumn = counts
	res.Note = fmt.Sprintf("%d of %d columns have missing values", withMissing, len(counts))
	return nil
}

func (c *Cleaner) dropDuplicates(t *models.Table, rep *models.CleaningReport, res *models.StepResult) error {
	removed := t.DeduplicateRows()
	rep.DuplicatesRemoved = removed
	res.Note = fmt.Sprintf("removed %d duplicate rows", removed)
	return nil
}

// parseNumericColumn converts the text cells of col to numbers. When
// strip is non-nil its matches are removed first (currency symbols and
// thousands separators). Cells that are already numeric or null pass
// through untouched, and a parsed NaN collapses to null so missing
// values stay uniform across the table.
func (c *Cleaner) parseNumericColumn(t *models.Table, col string, strip *regexp.Regexp, res *models.StepResult) error {
	idx, ok := t.ColumnIndex(col)
	if !ok {
		return fmt.Errorf("column %q not present", col)
	}
	policy := c.policies[col]

	parsed, nulled := 0, 0
	for r := 0; r < t.NumRows(); r++ {
		cell := t.CellAt(r, idx)
		if cell.Kind != models.KindText {
			continue
		}
		raw := cell.Text
		s := raw
		if strip != nil {
			s = strip.ReplaceAllString(s, "")
		}
		f, err := cast.ToFloat64E(strings.TrimSpace(s))
		if err != nil {
			if policy == PolicyStrict {
				return fmt.Errorf("row %d: cannot convert %q to a number", r+1, raw)
			}
			c.logger.Debug("[cleaner] %s row %d: coercing %q to null", col, r+1, raw)
			t.SetCellAt(r, idx, models.NullCell())
			nulled++
			continue
		}
		if math.IsNaN(f) {
			c.logger.Debug("[cleaner] %s row %d: coercing NaN to null", col, r+1)
			t.SetCellAt(r, idx, models.NullCell())
			nulled++
			continue
		}
		t.SetCellAt(r, idx, models.NumberCell(f))
		parsed++
	}

	note := fmt.Sprintf("converted %d cells (%s)", parsed, policy)
	if nulled > 0 {
		note += fmt.Sprintf(", %d coerced to null", nulled)
	}
	res.Note = note
	return nil
}

// deriveDaysBooked adds days_booked = 365 - availability_365, null
// where availability is missing.
func (c *Cleaner) deriveDaysBooked(t *models.Table, _ *models.CleaningReport, res *models.StepResult) error {
	idx, ok := t.ColumnIndex("availability_365")
	if !ok {
		return fmt.Errorf("column %q not present", "availability_365")
	}
	cells := make([]models.Cell, t.NumRows())
	missing := 0
	for r := range cells {
		if f, ok := t.CellAt(r, idx).Float(); ok {
			cells[r] = models.NumberCell(365 - f)
		} else {
			cells[r] = models.NullCell()
			missing++
		}
	}
	if err := t.SetColumn("days_booked", cells); err != nil {
		return err
	}
	res.Note = fmt.Sprintf("computed for %d rows, %d null", len(cells)-missing, missing)
	return nil
}

func (c *Cleaner) deriveSuperhost(t *models.Table, _ *models.CleaningReport, res *models.StepResult) error {
	return c.deriveFlagLabel(t, "host_is_superhost", "is_superhost", "Superhost", "Regular Host", res)
}

func (c *Cleaner) deriveHostVerified(t *models.Table, _ *models.CleaningReport, res *models.StepResult) error {
	return c.deriveFlagLabel(t, "host_identity_verified", "host_verified", "Verified Host", "Non-Verified Host", res)
}

// deriveFlagLabel maps a "t"/"f" flag column onto a readable label
// column. Anything other than a literal "t" (any case) gets the
// negative label, nulls included.
func (c *Cleaner) deriveFlagLabel(t *models.Table, src, dst, positive, negative string, res *models.StepResult) error {
	idx, ok := t.ColumnIndex(src)
	if !ok {
		return fmt.Errorf("column %q not present", src)
	}
	cells := make([]models.Cell, t.NumRows())
	positives := 0
	for r := range cells {
		cell := t.CellAt(r, idx)
		if cell.Kind == models.KindText && strings.EqualFold(cell.Text, "t") {
			cells[r] = models.TextCell(positive)
			positives++
		} else {
			cells[r] = models.TextCell(negative)
		}
	}
	if err := t.SetColumn(dst, cells); err != nil {
		return err
	}
	res.Note = fmt.Sprintf("%d %s, %d %s", positives, positive, len(cells)-positives, negative)
	return nil
}

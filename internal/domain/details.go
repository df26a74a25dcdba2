package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SeasonalKind names a seasonal activity with its own month list
type SeasonalKind string

const (
	SeasonalFertilization SeasonalKind = "fertilization"
	SeasonalPests         SeasonalKind = "pests"
	SeasonalWeeds         SeasonalKind = "weeds"
)

// IsValid reports whether k is a known seasonal kind
func (k SeasonalKind) IsValid() bool {
	switch k {
	case SeasonalFertilization, SeasonalPests, SeasonalWeeds:
		return true
	}
	return false
}

// MaterialLine is a material consumed during an execution
type MaterialLine struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty" validate:"max=20"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ChecklistEntry is one checklist item of an execution or template
type ChecklistEntry struct {
	Key   string `json:"key" validate:"required,max=100"`
	Label string `json:"label" validate:"required,max=200"`
	Done  bool   `json:"done"`
	Notes string `json:"notes,omitempty" validate:"max=1000"`
}

// FertilizationEntry records one fertilizer application
type FertilizationEntry struct {
	Product string `json:"product" validate:"required,max=200"`
	Dose    string `json:"dose,omitempty" validate:"max=100"`
	Area    string `json:"area,omitempty" validate:"max=200"`
	Date    *Date  `json:"date,omitempty"`
}

// PestEntry records one pest observation or treatment
type PestEntry struct {
	Type      string `json:"type" validate:"required,max=100"`
	Severity  string `json:"severity,omitempty" validate:"omitempty,oneof=low medium high"`
	Treatment string `json:"treatment,omitempty" validate:"max=200"`
	Date      *Date  `json:"date,omitempty"`
	Notes     string `json:"notes,omitempty" validate:"max=1000"`
}

// SeasonalSchedule lists the months (1..12) in which each seasonal activity is planned
type SeasonalSchedule struct {
	FertilizationMonths []int `json:"fertilization_months,omitempty" validate:"dive,min=1,max=12"`
	PestsMonths         []int `json:"pests_months,omitempty" validate:"dive,min=1,max=12"`
	WeedsMonths         []int `json:"weeds_months,omitempty" validate:"dive,min=1,max=12"`
}

// Months returns the month list configured for kind
func (s *SeasonalSchedule) Months(kind SeasonalKind) []int {
	if s == nil {
		return nil
	}
	switch kind {
	case SeasonalFertilization:
		return s.FertilizationMonths
	case SeasonalPests:
		return s.PestsMonths
	case SeasonalWeeds:
		return s.WeedsMonths
	}
	return nil
}

// ExecutionDetails is the structured document stored with each execution.
// Fields this version does not know about are kept in Extra and written back unchanged.
type ExecutionDetails struct {
	Labor         *decimal.Decimal     `json:"labor,omitempty"`
	Materials     []MaterialLine       `json:"materials,omitempty"`
	MarkupPct     *decimal.Decimal     `json:"markup_pct,omitempty"`
	Checklist     []ChecklistEntry     `json:"checklist,omitempty"`
	Fertilization []FertilizationEntry `json:"fertilization,omitempty"`
	Pests         []PestEntry          `json:"pests,omitempty"`
	Photos        []string             `json:"photos,omitempty"`
	Schedule      *SeasonalSchedule    `json:"schedule,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var knownDetailFields = map[string]struct{}{
	"labor": {}, "materials": {}, "markup_pct": {}, "checklist": {},
	"fertilization": {}, "pests": {}, "photos": {}, "schedule": {},
}

// ErrInvalidDetails is returned when a stored details document has an unexpected shape
var ErrInvalidDetails = errors.New("invalid execution details document")

type executionDetailsAlias ExecutionDetails

// UnmarshalJSON decodes the known fields and preserves the unknown ones.
// Anything other than a JSON object (or null) is rejected.
func (d *ExecutionDetails) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = ExecutionDetails{}
		return nil
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidDetails)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	var alias executionDetailsAlias
	if err := json.Unmarshal(trimmed, &alias); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	for key := range knownDetailFields {
		delete(raw, key)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*d = ExecutionDetails(alias)
	return nil
}

// MarshalJSON encodes the known fields and merges the preserved unknown ones back in
func (d ExecutionDetails) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(executionDetailsAlias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(d.Extra)+len(knownDetailFields))
	for k, v := range d.Extra {
		if _, isKnown := knownDetailFields[k]; !isKnown {
			merged[k] = v
		}
	}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	return json.Marshal(merged)
}

// MaterialsTotal returns the sum of unit_cost * quantity over all material lines
func MaterialsTotal(lines []MaterialLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.UnitCost.Mul(line.Quantity))
	}
	return total
}

// ComputeFinalAmount returns labor + round2(materials * (1 + markupPct/100))
func ComputeFinalAmount(labor decimal.Decimal, materials []MaterialLine, markupPct decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(markupPct.Div(decimal.NewFromInt(100)))
	marked := MaterialsTotal(materials).Mul(factor).Round(2)
	return labor.Add(marked).Round(2)
}

// Validate checks the value constraints of the document
func (d *ExecutionDetails) Validate() error {
	if d.Labor != nil && d.Labor.IsNegative() {
		return fmt.Errorf("%w: labor must not be negative", ErrInvalidDetails)
	}
	if d.MarkupPct != nil && d.MarkupPct.IsNegative() {
		return fmt.Errorf("%w: markup_pct must not be negative", ErrInvalidDetails)
	}
	for i, m := range d.Materials {
		if m.Quantity.IsNegative() || m.UnitCost.IsNegative() {
			return fmt.Errorf("%w: materials[%d] must not be negative", ErrInvalidDetails, i)
		}
	}
	if d.Schedule != nil {
		for _, kind := range []SeasonalKind{SeasonalFertilization, SeasonalPests, SeasonalWeeds} {
			for _, m := range d.Schedule.Months(kind) {
				if m < 1 || m > 12 {
					return fmt.Errorf("%w: %s month %d out of range", ErrInvalidDetails, kind, m)
				}
			}
		}
	}
	return nil
}

// SeasonalEvent is one fertilization or pest record appended to the current period.
// Exactly the entry matching Kind must be set.
type SeasonalEvent struct {
	Kind          SeasonalKind
	Fertilization *FertilizationEntry
	Pest          *PestEntry
}

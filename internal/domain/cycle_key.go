package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CycleKind identifies which kind of occurrence an execution represents
type CycleKind string

const (
	CycleKindTemplate CycleKind = "template"
	CycleKindPeriod   CycleKind = "period"
	CycleKindAdHoc    CycleKind = "adhoc"
)

// CycleKey identifies one occurrence of a plan. Exactly one of the variants is meaningful:
// Template carries no data, Period carries Year and Month, AdHoc carries At.
//
// Stored form: "template", "period:2025-02", "adhoc:2025-02-10T14:03:00.123456789Z".
type CycleKey struct {
	Kind  CycleKind
	Year  int
	Month time.Month
	At    time.Time
}

// TemplateKey returns the key of a plan's defaults record
func TemplateKey() CycleKey {
	return CycleKey{Kind: CycleKindTemplate}
}

// Period keys are written as four-digit years
const (
	MinPeriodYear = 1
	MaxPeriodYear = 9999
)

// ValidPeriod reports whether year and month can be stored as a period key
func ValidPeriod(year int, month time.Month) bool {
	return year >= MinPeriodYear && year <= MaxPeriodYear && month >= time.January && month <= time.December
}

// PeriodKey returns the key of the billing-period execution for the given month
func PeriodKey(year int, month time.Month) CycleKey {
	return CycleKey{Kind: CycleKindPeriod, Year: year, Month: month}
}

// AdHocKey returns the key of an out-of-cycle execution created at the given instant
func AdHocKey(at time.Time) CycleKey {
	return CycleKey{Kind: CycleKindAdHoc, At: at.UTC()}
}

func (k CycleKey) String() string {
	switch k.Kind {
	case CycleKindTemplate:
		return string(CycleKindTemplate)
	case CycleKindPeriod:
		return fmt.Sprintf("%s:%04d-%02d", CycleKindPeriod, k.Year, int(k.Month))
	case CycleKindAdHoc:
		return string(CycleKindAdHoc) + ":" + k.At.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// ParseCycleKey parses the stored form of a cycle key
func ParseCycleKey(s string) (CycleKey, error) {
	kind, rest, _ := strings.Cut(s, ":")
	switch CycleKind(kind) {
	case CycleKindTemplate:
		if rest != "" {
			return CycleKey{}, fmt.Errorf("invalid template cycle key %q", s)
		}
		return TemplateKey(), nil
	case CycleKindPeriod:
		yearPart, monthPart, ok := strings.Cut(rest, "-")
		year, yearErr := strconv.Atoi(yearPart)
		month, monthErr := strconv.Atoi(monthPart)
		if !ok || yearErr != nil || monthErr != nil || !ValidPeriod(year, time.Month(month)) {
			return CycleKey{}, fmt.Errorf("invalid period cycle key %q", s)
		}
		return PeriodKey(year, time.Month(month)), nil
	case CycleKindAdHoc:
		t, err := time.Parse(time.RFC3339Nano, rest)
		if err != nil {
			return CycleKey{}, fmt.Errorf("invalid ad-hoc cycle key %q: %w", s, err)
		}
		return AdHocKey(t), nil
	default:
		return CycleKey{}, fmt.Errorf("unknown cycle key %q", s)
	}
}

// Value implements driver.Valuer
func (k CycleKey) Value() (driver.Value, error) {
	if k.Kind == CycleKindPeriod && !ValidPeriod(k.Year, k.Month) {
		return nil, fmt.Errorf("cannot store period %d-%02d", k.Year, int(k.Month))
	}
	s := k.String()
	if s == "" {
		return nil, fmt.Errorf("cannot store cycle key with kind %q", k.Kind)
	}
	return s, nil
}

// Scan implements sql.Scanner
func (k *CycleKey) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CycleKey", src)
	}
	parsed, err := ParseCycleKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MarshalJSON encodes the key in its stored form
func (k CycleKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes the stored form
func (k *CycleKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCycleKey(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

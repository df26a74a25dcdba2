package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/verdant-ops/gardenledger/internal/auth"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config.
// Fields outside fieldMap fall back to defaultColumn.
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// NormalizePage clamps page and pageSize to sane values
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ApplyAccountFilter restricts a query to the account of the current request.
// Without an account in the context (background jobs) the query is returned unchanged.
func ApplyAccountFilter(ctx context.Context, query *gorm.DB) *gorm.DB {
	if accountID := auth.GetEffectiveAccountID(ctx); accountID != nil {
		return query.Where("account_id = ?", *accountID)
	}
	return query
}

// AccountIDForWrite returns the account new records must be owned by
func AccountIDForWrite(ctx context.Context) (uuid.UUID, bool) {
	if accountID := auth.GetEffectiveAccountID(ctx); accountID != nil {
		return *accountID, true
	}
	return uuid.Nil, false
}

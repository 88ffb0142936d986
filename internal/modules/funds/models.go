// Package funds provides the scheme metadata catalogue: loading, search and filter options.
package funds

import "strings"

// Instrument types
const (
	TypeMutualFund = "Mutual Fund"
	TypeETF        = "ETF"
)

// Scheme represents a fund scheme from the reference dataset.
// JSON names follow the dataset's column headers.
type Scheme struct {
	Code        string `json:"schemeCode"`
	Name        string `json:"schemeName"`
	AMC         string `json:"AMC"`
	Category    string `json:"schemeCategory"`
	SubCategory string `json:"schemeSubCategory"`
	Plan        string `json:"Plan"`
	Option      string `json:"Option"`
	Type        string `json:"instrumentType"`
}

// InstrumentType derives the instrument type from a sub-category
func InstrumentType(subCategory string) string {
	if strings.Contains(strings.ToUpper(subCategory), "ETF") {
		return TypeETF
	}
	return TypeMutualFund
}

// NormalizeType maps a user-supplied type to a known instrument type.
// Anything other than "etf" (case-insensitive) is a mutual fund.
func NormalizeType(t string) string {
	if strings.EqualFold(strings.TrimSpace(t), TypeETF) {
		return TypeETF
	}
	return TypeMutualFund
}

// Filter narrows a scheme search
type Filter struct {
	Type          string
	Query         string
	AMCs          []string
	Categories    []string
	SubCategories []string
	Plans         []string
	Options       []string
	Limit         int
}

// Stats holds dropdown values and counts for one instrument type
type Stats struct {
	Total         int      `json:"total"`
	MutualFunds   int      `json:"mutual_funds"`
	ETFs          int      `json:"etfs"`
	AMCs          []string `json:"amcs"`
	Categories    []string `json:"categories"`
	SubCategories []string `json:"subcategories"`
	Plans         []string `json:"plans"`
	Options       []string `json:"options"`
}

// DependentFilters holds the options still available after choosing AMCs and categories
type DependentFilters struct {
	Categories    []string `json:"categories"`
	SubCategories []string `json:"subcategories"`
	Plans         []string `json:"plans"`
	Options       []string `json:"options"`
}

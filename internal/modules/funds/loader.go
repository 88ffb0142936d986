package funds

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// column aliases accepted in the dataset header, lower-cased
var columnAliases = map[string][]string{
	"code":        {"schemecode", "scheme_code", "code", "amfi_code", "amficode"},
	"name":        {"schemename", "scheme_name", "name"},
	"amc":         {"amc", "fund_house"},
	"category":    {"schemecategory", "scheme_category", "category"},
	"subcategory": {"schemesubcategory", "scheme_subcategory", "subcategory"},
	"plan":        {"plan"},
	"option":      {"option"},
}

// LoadCSV reads the scheme reference dataset from a file
func LoadCSV(path string) ([]Scheme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schemes dataset: %w", err)
	}
	defer f.Close()

	return ParseCSV(f)
}

// ParseCSV reads the scheme reference dataset. Rows without a scheme code are skipped.
func ParseCSV(r io.Reader) ([]Scheme, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("schemes dataset is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := resolveColumns(header)
	if _, ok := index["code"]; !ok {
		return nil, fmt.Errorf("schemes dataset has no scheme code column")
	}
	if _, ok := index["name"]; !ok {
		return nil, fmt.Errorf("schemes dataset has no scheme name column")
	}

	var schemes []Scheme
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		code := field("code")
		if code == "" {
			continue
		}

		s := Scheme{
			Code:        code,
			Name:        field("name"),
			AMC:         field("amc"),
			Category:    field("category"),
			SubCategory: field("subcategory"),
			Plan:        field("plan"),
			Option:      field("option"),
		}
		s.Type = InstrumentType(s.SubCategory)
		schemes = append(schemes, s)
	}

	return schemes, nil
}

func resolveColumns(header []string) map[string]int {
	index := make(map[string]int)
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range columnAliases {
			if _, taken := index[field]; taken {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					index[field] = i
				}
			}
		}
	}
	return index
}

package testing

import (
	"encoding/json"
	"fmt"
	"time"
)

// NAVLayout is the dd-mm-yyyy layout used by the NAV provider
const NAVLayout = "02-01-2006"

// SchemesCSV is a small reference dataset covering both instrument types
const SchemesCSV = `schemeCode,schemeName,AMC,schemeCategory,schemeSubCategory,Plan,Option
100001,Alpha Large Cap Fund - Direct Growth,Alpha AMC,Equity Scheme,Large Cap Fund,Direct,Growth
100002,Alpha Large Cap Fund - Regular IDCW,Alpha AMC,Equity Scheme,Large Cap Fund,Regular,IDCW
100003,Beta Liquid Fund - Direct Growth,Beta Mutual Fund,Debt Scheme,Liquid Fund,Direct,Growth
100004,Beta Nifty 50 ETF,Beta Mutual Fund,Other Scheme,Index Funds/ETFs - ETF,,ETF
100005,Gamma Gold ETF,Gamma AMC,Other Scheme,Gold ETF,,ETF
,Orphan Fund Without Code,Nobody AMC,Equity Scheme,Flexi Cap Fund,Direct,Growth
`

// NAVEntry is one provider record, newest first in provider payloads
type NAVEntry struct {
	Date string `json:"date"`
	NAV  string `json:"nav"`
}

// DailyNAVs generates one entry per calendar day from start, growing by dailyGrowth
// per day. Entries are returned oldest first.
func DailyNAVs(start time.Time, days int, startNAV, dailyGrowth float64) []NAVEntry {
	entries := make([]NAVEntry, 0, days)
	nav := startNAV
	for i := 0; i < days; i++ {
		entries = append(entries, NAVEntry{
			Date: start.AddDate(0, 0, i).Format(NAVLayout),
			NAV:  fmt.Sprintf("%.4f", nav),
		})
		nav *= 1 + dailyGrowth
	}
	return entries
}

// MFAPIPayload renders a provider response body. Entries are emitted newest first,
// matching the provider's ordering.
func MFAPIPayload(schemeName string, entries []NAVEntry) []byte {
	reversed := make([]NAVEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}

	body, err := json.Marshal(map[string]interface{}{
		"meta": map[string]interface{}{
			"scheme_name": schemeName,
		},
		"data":   reversed,
		"status": "SUCCESS",
	})
	if err != nil {
		panic(err)
	}
	return body
}

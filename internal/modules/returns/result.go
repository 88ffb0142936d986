package returns

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ReturnResult maps horizon labels to 2-decimal percentages in policy order.
// Every label is present; an infeasible horizon holds nil and marshals as null.
type ReturnResult struct {
	values      *orderedmap.OrderedMap[string, *float64]
	approximate []string
}

// NewReturnResult creates a result with every label set to null
func NewReturnResult(labels []string) ReturnResult {
	values := orderedmap.New[string, *float64]()
	for _, label := range labels {
		values.Set(label, nil)
	}
	return ReturnResult{values: values}
}

// Set records the value for a label, appending the label if it is new
func (r *ReturnResult) Set(label string, value *float64) {
	if r.values == nil {
		r.values = orderedmap.New[string, *float64]()
	}
	r.values.Set(label, value)
}

// Get returns the value for label and whether the label exists
func (r ReturnResult) Get(label string) (*float64, bool) {
	if r.values == nil {
		return nil, false
	}
	return r.values.Get(label)
}

// Labels returns labels in insertion order
func (r ReturnResult) Labels() []string {
	if r.values == nil {
		return nil
	}
	labels := make([]string, 0, r.values.Len())
	for pair := r.values.Oldest(); pair != nil; pair = pair.Next() {
		labels = append(labels, pair.Key)
	}
	return labels
}

// Len returns the number of horizons
func (r ReturnResult) Len() int {
	if r.values == nil {
		return 0
	}
	return r.values.Len()
}

// MarkApproximate flags a horizon whose value comes from a non-converged solve
func (r *ReturnResult) MarkApproximate(label string) {
	r.approximate = append(r.approximate, label)
}

// Approximate lists the horizons whose values are best-effort estimates
func (r ReturnResult) Approximate() []string {
	return r.approximate
}

// SetApproximate replaces the approximate horizon list
func (r *ReturnResult) SetApproximate(labels []string) {
	r.approximate = labels
}

// MarshalJSON writes the label mapping in order, nulls included
func (r ReturnResult) MarshalJSON() ([]byte, error) {
	if r.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.values)
}

// UnmarshalJSON reads a label mapping, preserving document order
func (r *ReturnResult) UnmarshalJSON(data []byte) error {
	values := orderedmap.New[string, *float64]()
	if err := json.Unmarshal(data, values); err != nil {
		return fmt.Errorf("failed to decode return result: %w", err)
	}
	r.values = values
	return nil
}

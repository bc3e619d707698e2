package features

import (
	"fmt"
	"sort"

	"gritcast/internal/types"
)

// LabelEncoder maps categorical string values to integer codes. Classes are
// assigned codes by lexicographic order of the fitted vocabulary, so for the
// full precipitation vocabulary the encoding is stable:
// none=0, rain=1, sleet=2, snow=3.
//
// The encoder is fit fresh at training time and frozen into the bundle.
// Transforming a value outside the fitted vocabulary is a programming-contract
// violation (the sanitizer guarantees the vocabulary at inference time), so it
// fails loudly rather than degrading to a default code.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// NewLabelEncoder returns an encoder fit on the given vocabulary. Duplicates
// are collapsed and the class list is sorted.
func NewLabelEncoder(values []string) *LabelEncoder {
	e := &LabelEncoder{}
	e.Fit(values)
	return e
}

// Fit replaces the encoder's vocabulary with the distinct sorted values.
func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)

	e.Classes = classes
	e.buildIndex()
}

// Transform returns the integer code for value as a float64 (feature vectors
// are uniformly float64). It returns an internal contract-violation error if
// the value was not in the fitted vocabulary.
func (e *LabelEncoder) Transform(value string) (float64, error) {
	if e.index == nil {
		e.buildIndex()
	}
	code, ok := e.index[value]
	if !ok {
		return 0, types.NewAppErrorWithDetails(
			types.ErrCodeInternalModelSkew,
			fmt.Sprintf("category %q is outside the fitted vocabulary", value),
			nil,
			map[string]any{"value": value, "classes": e.Classes},
		)
	}
	return float64(code), nil
}

// buildIndex rebuilds the lookup map from Classes. Needed after JSON
// deserialization, which only restores the exported class list.
func (e *LabelEncoder) buildIndex() {
	e.index = make(map[string]int, len(e.Classes))
	for i, c := range e.Classes {
		e.index[c] = i
	}
}

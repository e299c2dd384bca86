package conflict

import "fmt"

// Classifier is the batch-path counterpart of the matcher's local typing.
// Store-reported candidate pairs already carry a conflict type and
// similarity computed by the store's composite-key query; this component
// accepts them as authoritative and only validates that the label is known
// and the similarity is in range. Keeping the two entry points separate
// preserves which system is authoritative for conflict typing on each path.
type Classifier struct{}

// FromStore validates a store-reported classification. An unknown label is a
// data error for the orchestrator's per-item boundary to drop; an
// out-of-range similarity is clamped.
func (Classifier) FromStore(reportedType string, similarity float64) (Type, float64, error) {
	t, ok := ParseType(reportedType)
	if !ok {
		return "", 0, fmt.Errorf("conflict: unknown conflict type %q", reportedType)
	}
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}
	return t, similarity, nil
}

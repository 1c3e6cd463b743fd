package entity

// ClassLabel is one of the disease classes the classifier can output
type ClassLabel string

const (
	ClassEarlyBlight ClassLabel = "Early Blight"
	ClassLateBlight  ClassLabel = "Late Blight"
	ClassHealthy     ClassLabel = "Healthy"
)

// labels is index-aligned with the model's output vector.
var labels = []ClassLabel{
	ClassEarlyBlight,
	ClassLateBlight,
	ClassHealthy,
}

var labelDescriptions = map[ClassLabel]string{
	ClassEarlyBlight: "A common potato disease caused by Alternaria solani",
	ClassLateBlight:  "A serious potato disease caused by Phytophthora infestans",
	ClassHealthy:     "No disease detected - healthy potato plant",
}

// Labels returns a copy of the ordered label set
func Labels() []ClassLabel {
	out := make([]ClassLabel, len(labels))
	copy(out, labels)
	return out
}

// LabelCount returns the size of the label set
func LabelCount() int {
	return len(labels)
}

// LabelAt returns the label for an output index
func LabelAt(i int) (ClassLabel, bool) {
	if i < 0 || i >= len(labels) {
		return "", false
	}
	return labels[i], true
}

// Description returns the human-readable description of the label
func (l ClassLabel) Description() string {
	return labelDescriptions[l]
}

// IsValid reports whether the label belongs to the label set
func (l ClassLabel) IsValid() bool {
	_, ok := labelDescriptions[l]
	return ok
}

package streamsketch

import (
	"slices"
)

// Group is a contiguous half-open range [Start, End) of counter indexes.
type Group struct {
	Start int
	End   int
}

// Len returns the number of counters in the group.
func (g Group) Len() int {
	return g.End - g.Start
}

// Partition splits m counters into contiguous groups.
//
// The number of groups is min(g, m) so that no group is empty. Every group
// holds floor(m/g) counters and the last group also takes the remainder:
// m=10, g=3 gives sizes 3, 3, 4. It returns nil if m or g is not positive.
func Partition(m, g int) []Group {
	if m <= 0 || g <= 0 {
		return nil
	}
	g = min(g, m)

	size := m / g
	groups := make([]Group, g)
	for i := range groups {
		groups[i] = Group{Start: i * size, End: (i + 1) * size}
	}
	groups[g-1].End = m

	return groups
}

// MedianOfMeans partitions values with [Partition], averages each group and
// returns the median of the group means. It returns 0 for empty input.
func MedianOfMeans(values []float64, g int) float64 {
	groups := Partition(len(values), g)
	if len(groups) == 0 {
		return 0
	}

	means := make([]float64, len(groups))
	for i, grp := range groups {
		means[i] = mean(values[grp.Start:grp.End])
	}
	return median(means)
}

// MeanOfMedians partitions values with [Partition], takes the median of each
// group and returns the mean of the group medians. It returns 0 for empty
// input.
func MeanOfMedians(values []float64, g int) float64 {
	groups := Partition(len(values), g)
	if len(groups) == 0 {
		return 0
	}

	medians := make([]float64, len(groups))
	for i, grp := range groups {
		medians[i] = median(values[grp.Start:grp.End])
	}
	return mean(medians)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median returns the middle value, or the mean of the two middle values for
// an even count. values is not modified.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

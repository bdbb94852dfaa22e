package textsim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidInput is returned when a point list contains a non-string.
var ErrInvalidInput = errors.New("textsim: invalid input")

// Strategy names a merge algorithm.
type Strategy string

const (
	// WeightedSimilarityMerge buckets by stem key, then clusters greedily
	// on the weighted Similarity score.
	WeightedSimilarityMerge Strategy = "weighted"
	// JaccardMerge drops points whose word-level Jaccard similarity to an
	// earlier kept point is too high.
	JaccardMerge Strategy = "jaccard"
)

// Default thresholds. A pair merges when its score is strictly greater.
const (
	DefaultWeightedThreshold = 0.6
	DefaultJaccardThreshold  = 0.7
)

// ParseStrategy maps a user-supplied name to a Strategy, defaulting to
// WeightedSimilarityMerge for empty input.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", WeightedSimilarityMerge:
		return WeightedSimilarityMerge, nil
	case JaccardMerge:
		return JaccardMerge, nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q (want %q or %q)", s, WeightedSimilarityMerge, JaccardMerge)
	}
}

// DefaultThreshold returns the tuned threshold for a strategy.
func (s Strategy) DefaultThreshold() float64 {
	if s == JaccardMerge {
		return DefaultJaccardThreshold
	}
	return DefaultWeightedThreshold
}

// Merger reduces a list of candidate points to one representative per
// group of near-duplicates.
type Merger struct {
	Strategy  Strategy
	Threshold float64
}

// NewMerger creates a Merger. A threshold <= 0 selects the strategy's
// default.
func NewMerger(strategy Strategy, threshold float64) *Merger {
	if strategy == "" {
		strategy = WeightedSimilarityMerge
	}
	if threshold <= 0 {
		threshold = strategy.DefaultThreshold()
	}
	return &Merger{Strategy: strategy, Threshold: threshold}
}

// Merge runs the configured strategy.
func (m *Merger) Merge(points []string) []string {
	if m.Strategy == JaccardMerge {
		return mergeJaccard(points, m.Threshold)
	}
	return mergeWeighted(points, m.Threshold)
}

// MergeSimilarPoints merges with the weighted strategy at the default
// threshold. Output is sorted by ascending length.
func MergeSimilarPoints(points []string) []string {
	return mergeWeighted(points, DefaultWeightedThreshold)
}

// PointsFromAny converts decoded JSON into a point list, failing with
// ErrInvalidInput on the first element that is not a string.
func PointsFromAny(values []any) ([]string, error) {
	points := make([]string, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T, not a string", ErrInvalidInput, i, v)
		}
		points = append(points, s)
	}
	return points, nil
}

func mergeWeighted(points []string, threshold float64) []string {
	// Pass 1: exact stem-key buckets, shortest original wins.
	var buckets []ProcessedPoint
	byKey := make(map[string]int)
	for _, p := range points {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pp := ProcessSuggestion(p)
		idx, ok := byKey[pp.Key]
		if !ok {
			byKey[pp.Key] = len(buckets)
			buckets = append(buckets, pp)
			continue
		}
		if len(pp.Original) < len(buckets[idx].Original) {
			buckets[idx] = pp
		}
	}

	// Pass 2: greedy clustering of bucket representatives, repeated until no
	// two representatives score above the threshold.
	clusters := clusterPoints(buckets, threshold)
	for {
		next := clusterPoints(clusters, threshold)
		if len(next) == len(clusters) {
			break
		}
		clusters = next
	}

	out := make([]string, len(clusters))
	for i, c := range clusters {
		out[i] = c.Original
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) < len(out[j]) })
	return out
}

// clusterPoints assigns each point to its best-scoring cluster above the
// threshold, keeping the shorter original as the cluster representative.
func clusterPoints(points []ProcessedPoint, threshold float64) []ProcessedPoint {
	var clusters []ProcessedPoint
	for _, pp := range points {
		best, bestScore := -1, 0.0
		for i, c := range clusters {
			if score := Similarity(pp.Simplified, c.Simplified); score > bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 && bestScore > threshold {
			if len(pp.Original) < len(clusters[best].Original) {
				clusters[best] = pp
			}
			continue
		}
		clusters = append(clusters, pp)
	}
	return clusters
}

func mergeJaccard(points []string, threshold float64) []string {
	var kept []string
	for _, p := range points {
		if strings.TrimSpace(p) == "" {
			continue
		}
		duplicate := false
		for _, k := range kept {
			if Jaccard(p, k) > threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, p)
		}
	}
	if kept == nil {
		return []string{}
	}
	return kept
}

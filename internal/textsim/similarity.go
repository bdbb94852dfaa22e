package textsim

import "strings"

// Weights of the three similarity components. The merge threshold is
// tuned against exactly this mix.
const (
	StemWeight     = 0.4
	WordWeight     = 0.4
	SequenceWeight = 0.2
)

// Scores is the per-component breakdown of a Similarity call.
type Scores struct {
	Sequence float64 `json:"sequence"`
	Word     float64 `json:"word"`
	Stem     float64 `json:"stem"`
	Total    float64 `json:"total"`
}

// Similarity scores two texts in [0,1]. It is symmetric, and identical
// texts score 1.
func Similarity(a, b string) float64 {
	return Breakdown(a, b).Total
}

// Breakdown returns the component scores behind Similarity.
func Breakdown(a, b string) Scores {
	if a == b {
		return Scores{Sequence: 1, Word: 1, Stem: 1, Total: 1}
	}

	wordsA, wordsB := tokenSet(a), tokenSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return Scores{}
	}

	sc := Scores{
		Sequence: SequenceRatio(strings.ToLower(a), strings.ToLower(b)),
		Word:     dice(wordsA, wordsB),
		Stem:     dice(stemSet(wordsA), stemSet(wordsB)),
	}
	sc.Total = clamp01(StemWeight*sc.Stem + WordWeight*sc.Word + SequenceWeight*sc.Sequence)
	return sc
}

// Jaccard returns |A∩B| / |A∪B| over the token sets of a and b.
// Two texts without tokens score 0.
func Jaccard(a, b string) float64 {
	setA, setB := tokenSet(a), tokenSet(b)
	inter := intersectionSize(setA, setB)
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func dice(a, b map[string]struct{}) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return 2 * float64(intersectionSize(a, b)) / float64(total)
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func stemSet(words map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for w := range words {
		out[Stem(w)] = struct{}{}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

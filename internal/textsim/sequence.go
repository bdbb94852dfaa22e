package textsim

// SequenceRatio measures how much of two strings is covered by matching
// blocks: 2*M / (len(a)+len(b)), where M is the number of runes in the
// blocks found by recursively taking the longest common substring and
// recursing on either side of it. This is the ratio Python's difflib
// reports, without the autojunk heuristic.
//
// The pair is put in canonical order first, so the ratio does not depend
// on argument order.
func SequenceRatio(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes sums the sizes of all matching blocks between a and b.
func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the
// given window. Among equally long blocks the one starting earliest in a
// wins, then earliest in b.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	bestI, bestJ, bestK := alo, blo, 0
	j2len := map[int]int{}

	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestK {
				bestI, bestJ, bestK = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return bestI, bestJ, bestK
}

package textsim

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Tokenize ───────────────────────────────────────────────────────────────

func TestTokenize_KeepsContractionsDropsPunctuation(t *testing.T) {
	assert.Equal(t, []string{"don't", "over", "design"}, Tokenize("Don't over-design!"))
}

func TestTokenize_Possessive(t *testing.T) {
	assert.Equal(t, []string{"the", "user", "flow"}, Tokenize("The user's flow"))
	assert.Equal(t, []string{"the", "user", "flow"}, Tokenize("The user’s flow"))
}

func TestTokenize_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Tokenize("  A\t\tb \n C  "))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("?!... --"))
}

// ─── Stem ───────────────────────────────────────────────────────────────────

func TestStem(t *testing.T) {
	tests := []struct {
		word, want string
	}{
		{"run", "run"},
		{"is", "is"},
		{"bed", "bed"},
		{"better", "good"},
		{"best", "good"},
		{"most", "many"},
		{"were", "be"},
		{"relational", "relate"},
		{"conditional", "condition"},
		{"lacks", "lack"},
		{"users", "user"},
		{"user", "user"},
		{"happiness", "happi"},
		{"quickly", "quick"},
		{"classes", "class"},
		{"class", "class"},
		{"visually", "visual"},
		{"sing", "sing"},
		{"été", "été"},
		{"çes", "çes"},
		{"éses", "ése"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Stem(tt.word))
		})
	}
}

func TestStem_Deterministic(t *testing.T) {
	for _, w := range []string{"running", "run", "organizational", "decisions"} {
		first := Stem(w)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Stem(w))
		}
	}
}

// ─── Similarity ─────────────────────────────────────────────────────────────

var similarityPairs = [][2]string{
	{"The UI lacks contrast", "Contrast is lacking in the UI"},
	{"Onboarding has too many steps", "Reduce onboarding steps"},
	{"abc", "xyz"},
	{"", "something"},
	{"Dark mode toggle", "dark MODE toggle!"},
}

func TestSimilarity_Symmetric(t *testing.T) {
	for _, p := range similarityPairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "pair %q / %q", p[0], p[1])
	}
}

func TestSimilarity_Reflexive(t *testing.T) {
	for _, p := range similarityPairs {
		if p[0] == "" {
			continue
		}
		assert.Equal(t, 1.0, Similarity(p[0], p[0]))
	}
}

func TestSimilarity_InRange(t *testing.T) {
	for _, p := range similarityPairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestSimilarity_NoTokensOnEitherSide(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("!!!", "??"))
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestBreakdown_Components(t *testing.T) {
	sc := Breakdown("ui contrast", "contrast ui")
	assert.Equal(t, 1.0, sc.Word)
	assert.Equal(t, 1.0, sc.Stem)
	assert.Less(t, sc.Sequence, 1.0)
	assert.InDelta(t, 0.8+0.2*sc.Sequence, sc.Total, 1e-9)
}

func TestSequenceRatio(t *testing.T) {
	assert.InDelta(t, 0.75, SequenceRatio("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 0.8, SequenceRatio("hello", "hallo"), 1e-9)
	assert.Equal(t, 1.0, SequenceRatio("", ""))
	assert.Equal(t, SequenceRatio("kitten", "sitting"), SequenceRatio("sitting", "kitten"))
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 0.5, Jaccard("a b c", "b c d"), 1e-9)
	assert.Equal(t, 0.0, Jaccard("", ""))
	assert.Equal(t, 1.0, Jaccard("Same words", "same WORDS"))
}

// ─── ProcessSuggestion ──────────────────────────────────────────────────────

func TestProcessSuggestion(t *testing.T) {
	pp := ProcessSuggestion("The UI (beta) needs contrast in order to help users")

	assert.Equal(t, "The UI (beta) needs contrast in order to help users", pp.Original)
	assert.Equal(t, "UI needs contrast help users", pp.Simplified)
	assert.Equal(t, "contrast help need ui user", pp.Key)
	// Stems come from the original text, stopwords included.
	assert.Len(t, pp.Stems, 10)
	assert.Equal(t, "the", pp.Stems[0])
}

func TestProcessSuggestion_KeyIgnoresOrderAndRepetition(t *testing.T) {
	a := ProcessSuggestion("users need contrast")
	b := ProcessSuggestion("contrast: the users need, users need")
	assert.Equal(t, a.Key, b.Key)
}

func TestSimplify_StripsQuotes(t *testing.T) {
	assert.Equal(t, "Bold choices", Simplify(`"Bold" choices`))
	assert.Equal(t, "Bold choices", Simplify(`“Bold” choices`))
}

// ─── Merge ──────────────────────────────────────────────────────────────────

func TestMergeSimilarPoints_ClustersNearDuplicates(t *testing.T) {
	points := []string{
		"The UI lacks contrast for visually impaired users.",
		"Low contrast makes the UI hard to see for visually impaired users.",
		"The onboarding flow has too many steps.",
	}

	got := MergeSimilarPoints(points)

	assert.Equal(t, []string{
		"The onboarding flow has too many steps.",
		"The UI lacks contrast for visually impaired users.",
	}, got)
}

func TestMergeSimilarPoints_Idempotent(t *testing.T) {
	tests := []struct {
		name   string
		points []string
	}{
		{"critique sentences", []string{
			"The UI lacks contrast for visually impaired users.",
			"Low contrast makes the UI hard to see for visually impaired users.",
			"The onboarding flow has too many steps.",
			"contrast ratio needs work",
			"contrast ratio needs review",
		}},
		{"shorter representative swapped in late", []string{
			"mode flow",
			"color see text",
			"low many contrast flow visually",
			"visually contrast dark",
			"see color",
			"contrast mode visually flow",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := MergeSimilarPoints(tt.points)
			assert.ElementsMatch(t, once, MergeSimilarPoints(once))
			assertNoPairAbove(t, once, DefaultWeightedThreshold)
		})
	}
}

func TestMergeSimilarPoints_IdempotentRandom(t *testing.T) {
	vocab := strings.Fields("contrast color text dark mode flow steps many low see " +
		"visually users button checkout guest address screen menu")
	rng := rand.New(rand.NewSource(42))

	for iter := 0; iter < 500; iter++ {
		points := make([]string, 6)
		for i := range points {
			words := make([]string, 1+rng.Intn(5))
			for j := range words {
				words[j] = vocab[rng.Intn(len(vocab))]
			}
			points[i] = strings.Join(words, " ")
		}

		once := MergeSimilarPoints(points)
		twice := MergeSimilarPoints(once)
		if !assert.ElementsMatch(t, once, twice, "input %q", points) {
			return
		}
		assertNoPairAbove(t, once, DefaultWeightedThreshold)
	}
}

// assertNoPairAbove checks that no two merged points still score above the
// merge threshold against each other.
func assertNoPairAbove(t *testing.T, points []string, threshold float64) {
	t.Helper()
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			a, b := ProcessSuggestion(points[i]), ProcessSuggestion(points[j])
			assert.LessOrEqual(t, Similarity(a.Simplified, b.Simplified), threshold,
				"%q and %q", points[i], points[j])
		}
	}
}

func TestMergeSimilarPoints_KeyBucketKeepsFirstShortest(t *testing.T) {
	got := MergeSimilarPoints([]string{
		"Users need contrast",
		"contrast users need",
		"Need contrast, users!!",
	})
	assert.Equal(t, []string{"Users need contrast"}, got)
}

func TestMergeSimilarPoints_EmptyAndBlank(t *testing.T) {
	assert.Empty(t, MergeSimilarPoints(nil))
	assert.Empty(t, MergeSimilarPoints([]string{"", "   "}))
}

func TestMerger_ThresholdIsConfigurable(t *testing.T) {
	points := []string{
		"The UI lacks contrast for visually impaired users.",
		"Low contrast makes the UI hard to see for visually impaired users.",
	}
	strict := NewMerger(WeightedSimilarityMerge, 0.95)
	assert.Len(t, strict.Merge(points), 2)

	loose := NewMerger(WeightedSimilarityMerge, 0)
	assert.Equal(t, DefaultWeightedThreshold, loose.Threshold)
	assert.Len(t, loose.Merge(points), 1)
}

func TestMerger_StrategiesStayDistinct(t *testing.T) {
	points := []string{"contrast ratio needs work", "contrast ratio needs review"}

	// Word Jaccard is 3/5 = 0.6, under the 0.7 cut.
	jac := NewMerger(JaccardMerge, 0)
	assert.Equal(t, DefaultJaccardThreshold, jac.Threshold)
	assert.Equal(t, points, jac.Merge(points))

	// Weighted score is well above 0.6.
	weighted := NewMerger(WeightedSimilarityMerge, 0)
	assert.Equal(t, []string{"contrast ratio needs work"}, weighted.Merge(points))
}

func TestMerger_JaccardKeepsFirstSeenInOrder(t *testing.T) {
	m := NewMerger(JaccardMerge, 0)
	got := m.Merge([]string{
		"Add dark mode toggle",
		"Improve onboarding",
		"add dark mode toggle now",
	})
	assert.Equal(t, []string{"Add dark mode toggle", "Improve onboarding"}, got)
	assert.Empty(t, m.Merge(nil))
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, WeightedSimilarityMerge, s)

	s, err = ParseStrategy(" Jaccard ")
	require.NoError(t, err)
	assert.Equal(t, JaccardMerge, s)

	_, err = ParseStrategy("cosine")
	assert.Error(t, err)
}

func TestPointsFromAny(t *testing.T) {
	got, err := PointsFromAny([]any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = PointsFromAny([]any{"a", 3.0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// ─── SplitResponse ──────────────────────────────────────────────────────────

func TestSplitResponse_MarkdownSections(t *testing.T) {
	resp := "## Accessibility\nContrast is too low.\n---\n## Onboarding\nToo many steps.\n"
	assert.Equal(t, []string{
		"Accessibility: Contrast is too low.",
		"Onboarding: Too many steps.",
	}, SplitResponse(resp))
}

func TestSplitResponse_HeadingsWithoutRules(t *testing.T) {
	resp := "## Accessibility\nContrast is too low.\n\n## Onboarding\nToo many steps.\n"
	assert.Equal(t, []string{
		"Accessibility: Contrast is too low.",
		"Onboarding: Too many steps.",
	}, SplitResponse(resp))

	mixed := "Intro line.\n## Contrast\n- Buttons fade out\n## Flow\n---\n## Copy\nLabels are vague."
	assert.Equal(t, []string{
		"Intro line.",
		"Contrast: Buttons fade out",
		"Flow",
		"Copy: Labels are vague.",
	}, SplitResponse(mixed))
}

func TestSplitResponse_LegacyDelimiter(t *testing.T) {
	assert.Equal(t,
		[]string{"Contrast is low", "Too many steps"},
		SplitResponse("**Contrast is low** **Too many steps**"),
	)
	assert.Equal(t,
		[]string{"First point", "Second point", "Third point"},
		SplitResponse("First point ** Second point ** Third point"),
	)
}

func TestSplitResponse_ListAndParagraphs(t *testing.T) {
	assert.Equal(t, []string{"First", "Second", "Third"}, SplitResponse("Intro\n1. First\n2) Second\n- Third"))
	assert.Equal(t, []string{"One para.", "Two para."}, SplitResponse("One para.\n\nTwo para."))
	assert.Empty(t, SplitResponse("   "))
}

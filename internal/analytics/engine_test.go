package analytics_test

import (
	"strings"
	"testing"

	"github.com/nDmitry/stackfeed/internal/analytics"
	"github.com/nDmitry/stackfeed/internal/entity"
	"github.com/nDmitry/stackfeed/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertEmptyAnalytics(t *testing.T, a entity.ContentAnalytics) {
	t.Helper()

	assert.Equal(t, 0, a.Structure.Words)
	assert.Equal(t, 0, a.Structure.Sentences)
	assert.Equal(t, 0, a.Structure.Syllables)
	assert.Equal(t, 0.0, a.Structure.AverageSentenceLength)
	assert.Equal(t, 0.0, a.LexicalDiversity)
	assert.NotNil(t, a.Keywords)
	assert.Empty(t, a.Keywords)
	assert.Equal(t, entity.Sentiment{Neutral: 1}, a.Sentiment)
	assert.Equal(t, entity.Readability{}, a.Readability)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	engine := analytics.New(0)

	for _, text := range []string{"", "   \n\t ", "!!! ... ???"} {
		assertEmptyAnalytics(t, engine.Analyze(text))
	}
}

func TestAnalyze_DegradedArticle(t *testing.T) {
	content := parser.ParseArticle([]byte(`<html><body><nav>Menu</nav></body></html>`), "https://demo.substack.com/p/x")

	require.True(t, content.Degraded)
	require.Equal(t, "", content.Body)

	assertEmptyAnalytics(t, analytics.New(10).Analyze(content.Body))
}

func TestAnalyze_SingleSentence(t *testing.T) {
	a := analytics.New(10).Analyze("The cat sat on the mat.")

	assert.Equal(t, entity.Structure{Words: 6, Sentences: 1, Syllables: 6, AverageSentenceLength: 6}, a.Structure)
	assert.InDelta(t, 116.145, a.Readability.Ease, 0.01)
	assert.InDelta(t, -1.45, a.Readability.Grade, 0.01)
	assert.Equal(t, 0.833, a.LexicalDiversity)

	assert.Equal(t, []entity.Keyword{
		{Term: "cat", Weight: 0.166667},
		{Term: "mat", Weight: 0.166667},
		{Term: "sat", Weight: 0.166667},
	}, a.Keywords)
}

func TestAnalyze_KeywordTieBreak(t *testing.T) {
	a := analytics.New(10).Analyze("zeta alpha.")

	require.Len(t, a.Keywords, 2)
	assert.Equal(t, a.Keywords[0].Weight, a.Keywords[1].Weight)
	assert.Equal(t, "alpha", a.Keywords[0].Term)
	assert.Equal(t, "zeta", a.Keywords[1].Term)
}

func TestAnalyze_KeywordRanking(t *testing.T) {
	text := "Rockets need fuel. Rockets need engines. Engineers build rockets. Weather delays launches."
	a := analytics.New(3).Analyze(text)

	require.Len(t, a.Keywords, 3)

	// "build" wins the tie among the single occurrences
	assert.Equal(t, "rockets", a.Keywords[0].Term)
	assert.Equal(t, "need", a.Keywords[1].Term)
	assert.Equal(t, "build", a.Keywords[2].Term)

	for i := 1; i < len(a.Keywords); i++ {
		assert.GreaterOrEqual(t, a.Keywords[i-1].Weight, a.Keywords[i].Weight)
	}
}

func TestAnalyze_KeywordsNeverPadded(t *testing.T) {
	a := analytics.New(10).Analyze("Tiny text. It is 2025 and we go.")

	terms := make([]string, 0, len(a.Keywords))

	for _, k := range a.Keywords {
		terms = append(terms, k.Term)
	}

	assert.ElementsMatch(t, []string{"tiny", "text"}, terms)
}

func TestAnalyze_Sentiment(t *testing.T) {
	engine := analytics.New(10)
	compound := func(text string) float64 {
		return engine.Analyze(text).Sentiment.Compound
	}

	plain := compound("This is great.")

	assert.InDelta(t, 0.6249, plain, 0.0001)
	assert.Greater(t, compound("This is very great."), plain)
	assert.Greater(t, compound("This is GREAT."), plain)
	assert.Greater(t, compound("This is great!"), plain)
	assert.Less(t, compound("This is not great."), 0.0)
	assert.Less(t, compound("The food was great but the service was terrible."), 0.0)
	assert.Greater(t, compound("The food was terrible but the service was great."), 0.0)
	assert.Equal(t, 0.0, compound("The table is in the room."))
}

func TestAnalyze_SentimentBounds(t *testing.T) {
	texts := []string{
		"This is great.",
		"Terrible, awful, horrible, the worst disaster and a tragedy!!!!!!",
		"LOVE LOVE LOVE. Best. Amazing. Wonderful!",
		"The table is in the room.",
	}

	for _, text := range texts {
		s := analytics.New(10).Analyze(text).Sentiment

		for _, v := range []float64{s.Positive, s.Negative, s.Neutral} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}

		assert.InDelta(t, 1.0, s.Positive+s.Negative+s.Neutral, 1e-9, text)
		assert.GreaterOrEqual(t, s.Compound, -1.0)
		assert.LessOrEqual(t, s.Compound, 1.0)
	}

	s := analytics.New(10).Analyze("This is great.").Sentiment
	assert.Equal(t, entity.Sentiment{Positive: 0.672, Negative: 0, Neutral: 0.328, Compound: 0.6249}, s)
}

func TestAnalyze_NonLatinScripts(t *testing.T) {
	engine := analytics.New(10)

	cyrillic := engine.Analyze("Привет мир. Как дела?")
	assert.Equal(t, 4, cyrillic.Structure.Words)
	assert.Equal(t, 2, cyrillic.Structure.Sentences)
	assert.Equal(t, 4, cyrillic.Structure.Syllables)
	assert.Len(t, cyrillic.Keywords, 4)

	cjk := engine.Analyze("今日は晴れ。明日は雨！")
	assert.Equal(t, 2, cjk.Structure.Words)
	assert.Equal(t, 2, cjk.Structure.Sentences)
	assert.Equal(t, 1.0, cjk.LexicalDiversity)

	arabic := engine.Analyze("مرحبا بالعالم. كيف حالك")
	assert.Equal(t, 4, arabic.Structure.Words)
	assert.Equal(t, 2, arabic.Structure.Sentences)
}

func TestAnalyze_Deterministic(t *testing.T) {
	text := strings.Repeat("Markets rallied strongly today! Investors were not worried. ", 5) +
		"Analysts, however, remain cautious about inflation and rates."

	engine := analytics.New(10)

	assert.Equal(t, engine.Analyze(text), engine.Analyze(text))
	assert.Equal(t, engine.Analyze(text), analytics.New(10).Analyze(text))
}

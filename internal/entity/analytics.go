package entity

// Sentiment holds lexicon-based polarity scores. Positive, Negative and
// Neutral are fractions in [0,1] summing to 1, Compound is in [-1,1].
type Sentiment struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Compound float64 `json:"compound"`
}

// Readability holds the Flesch reading ease and Flesch-Kincaid grade level.
type Readability struct {
	Ease  float64 `json:"flesch_reading_ease"`
	Grade float64 `json:"flesch_kincaid_grade"`
}

// Keyword is a salient term together with its weight.
type Keyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Structure holds the raw counts the other metrics are derived from.
type Structure struct {
	Words                 int     `json:"words"`
	Sentences             int     `json:"sentences"`
	Syllables             int     `json:"syllables"`
	AverageSentenceLength float64 `json:"average_sentence_length"`
}

// ContentAnalytics is a derived value computed from a body of text.
type ContentAnalytics struct {
	Sentiment        Sentiment   `json:"sentiment"`
	Readability      Readability `json:"readability"`
	LexicalDiversity float64     `json:"lexical_diversity"`
	Keywords         []Keyword   `json:"keywords"`
	Structure        Structure   `json:"structure"`
}

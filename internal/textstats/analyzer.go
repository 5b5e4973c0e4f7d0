// Package textstats counts words and characters and picks naive keywords.
package textstats

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxKeywords caps the keyword list
const DefaultMaxKeywords = 10

// minKeywordLength is exclusive: keywords have at least three characters
const minKeywordLength = 2

// Summary sentence languages
const (
	SummaryEnglish = "en"
	SummaryChinese = "zh"
)

var summaryFormats = map[string]string{
	SummaryEnglish: "Text contains %d words, %d characters",
	SummaryChinese: "文本包含 %d 个单词，%d 个字符",
}

// DefaultStopWords are never reported as keywords
var DefaultStopWords = []string{"的", "是", "在", "有", "和", "与", "或", "但"}

// Result is the analysis of one text
type Result struct {
	OriginalLength int      `json:"original_length"`
	CharCount      int      `json:"char_count"`
	WordCount      int      `json:"word_count"`
	Keywords       []string `json:"keywords"`
	ProcessedAt    string   `json:"processed_at"`
	Summary        string   `json:"summary"`
}

// Analyzer is stateless apart from its configuration and safe for concurrent use
type Analyzer struct {
	stopWords   map[string]struct{}
	maxKeywords int
	summary     string
	now         func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithStopWords adds stop words to the defaults. Matching is on the lower-cased token.
func WithStopWords(words ...string) Option {
	return func(a *Analyzer) {
		for _, w := range words {
			a.stopWords[strings.ToLower(w)] = struct{}{}
		}
	}
}

// WithMaxKeywords sets the keyword cap. Values below 1 keep the default.
func WithMaxKeywords(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxKeywords = n
		}
	}
}

// WithSummaryLanguage picks the summary sentence. Unknown languages keep English.
func WithSummaryLanguage(lang string) Option {
	return func(a *Analyzer) {
		if f, ok := summaryFormats[lang]; ok {
			a.summary = f
		}
	}
}

// WithClock overrides the processed_at source
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an analyzer with the default stop words and keyword cap
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		stopWords:   make(map[string]struct{}, len(DefaultStopWords)),
		maxKeywords: DefaultMaxKeywords,
		summary:     summaryFormats[SummaryEnglish],
		now:         time.Now,
	}
	for _, w := range DefaultStopWords {
		a.stopWords[w] = struct{}{}
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the statistics of text. Lengths count Unicode code points.
func (a *Analyzer) Analyze(text string) Result {
	words := strings.Fields(text)
	chars := utf8.RuneCountInString(text)

	return Result{
		OriginalLength: chars,
		CharCount:      chars,
		WordCount:      len(words),
		Keywords:       a.keywords(words),
		ProcessedAt:    a.now().Format(time.RFC3339Nano),
		Summary:        fmt.Sprintf(a.summary, len(words), chars),
	}
}

// keywords keeps lower-cased tokens longer than two characters that are not
// stop words, in order, up to the cap
func (a *Analyzer) keywords(words []string) []string {
	keywords := make([]string, 0, min(len(words), a.maxKeywords))
	for _, w := range words {
		if len(keywords) == a.maxKeywords {
			break
		}
		w = strings.ToLower(w)
		if utf8.RuneCountInString(w) <= minKeywordLength {
			continue
		}
		if _, stop := a.stopWords[w]; stop {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

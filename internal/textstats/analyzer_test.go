package textstats

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 11, 14, 20, 15, 11, 0, time.UTC)
}

func TestAnalyzer_Analyze(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		words    int
		chars    int
		keywords []string
	}{
		{"empty", "", 0, 0, []string{}},
		{"quick brown fox", "the quick brown fox", 4, 19, []string{"the", "quick", "brown", "fox"}},
		{"short words dropped", "a an to be tea", 5, 14, []string{"tea"}},
		{"lower cased", "Hello WORLD", 2, 11, []string{"hello", "world"}},
		{"whitespace runs", "  one\t\ttwo\nthree  ", 3, 18, []string{"one", "two", "three"}},
		{"unicode length", "naïve café", 2, 10, []string{"naïve", "café"}},
		{"stop words", "的是在 的 有有有 和", 4, 11, []string{"的是在", "有有有"}},
		{"cjk short tokens", "你好 世界们", 2, 6, []string{"世界们"}},
	}

	a := NewAnalyzer(WithClock(fixedClock))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.text)
			if got.WordCount != tt.words {
				t.Errorf("WordCount = %d, want %d", got.WordCount, tt.words)
			}
			if got.CharCount != tt.chars || got.OriginalLength != tt.chars {
				t.Errorf("CharCount, OriginalLength = %d, %d, want %d", got.CharCount, got.OriginalLength, tt.chars)
			}
			if !reflect.DeepEqual(got.Keywords, tt.keywords) {
				t.Errorf("Keywords = %#v, want %#v", got.Keywords, tt.keywords)
			}
			if got.ProcessedAt != "2025-11-14T20:15:11Z" {
				t.Errorf("ProcessedAt = %s", got.ProcessedAt)
			}
		})
	}
}

func TestAnalyzer_Summary(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want string
	}{
		{"default", nil, "Text contains 4 words, 19 characters"},
		{"english", []Option{WithSummaryLanguage(SummaryEnglish)}, "Text contains 4 words, 19 characters"},
		{"chinese", []Option{WithSummaryLanguage(SummaryChinese)}, "文本包含 4 个单词，19 个字符"},
		{"unknown", []Option{WithSummaryLanguage("fr")}, "Text contains 4 words, 19 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAnalyzer(tt.opts...).Analyze("the quick brown fox")
			if got.Summary != tt.want {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.want)
			}
		})
	}
}

func TestAnalyzer_KeywordCap(t *testing.T) {
	text := strings.Repeat("word ", 25)

	if got := NewAnalyzer().Analyze(text).Keywords; len(got) != 10 {
		t.Errorf("default cap: len(Keywords) = %d, want 10", len(got))
	}
	if got := NewAnalyzer(WithMaxKeywords(3)).Analyze(text).Keywords; len(got) != 3 {
		t.Errorf("WithMaxKeywords(3): len(Keywords) = %d, want 3", len(got))
	}
	if got := NewAnalyzer(WithMaxKeywords(0)).Analyze(text).Keywords; len(got) != 10 {
		t.Errorf("WithMaxKeywords(0): len(Keywords) = %d, want default 10", len(got))
	}
}

func TestAnalyzer_ExtraStopWords(t *testing.T) {
	a := NewAnalyzer(WithStopWords("The", "fox"))
	got := a.Analyze("The quick brown fox").Keywords
	want := []string{"quick", "brown"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keywords = %v, want %v", got, want)
	}

	// defaults are unaffected
	if got := NewAnalyzer().Analyze("the fox").Keywords; len(got) != 2 {
		t.Errorf("default analyzer Keywords = %v, want 2 entries", got)
	}
}

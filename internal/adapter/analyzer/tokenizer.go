package analyzer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits text into tokens with optional stemming and stopword removal.
// Words written in a CJK script are emitted as overlapping character bigrams
// when bigrams are enabled, since those scripts attach particles to words.
type Tokenizer struct {
	stopwords  map[string]struct{}
	useStem    bool
	cjkBigrams bool
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithCJKBigrams enables bigram emission for Hangul, Han and Kana words.
func WithCJKBigrams() Option {
	return func(t *Tokenizer) { t.cjkBigrams = true }
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		stopwords: defaultStopwords(),
		useStem:   useStemming,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(norm.NFKC.String(text))
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if t.cjkBigrams && hasCJK(word) {
			tokens = append(tokens, bigrams(word)...)
			continue
		}
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.useStem {
			word = english.Stem(word, false)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Hangul, r) ||
		unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r)
}

func hasCJK(word string) bool {
	for _, r := range word {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// bigrams returns overlapping rune pairs; a single-rune word is returned as is.
func bigrams(word string) []string {
	runes := []rune(word)
	if len(runes) < 2 {
		return []string{word}
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "must", "shall", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"each", "every", "both", "few", "more", "most", "other",
		"some", "such", "than", "too", "very", "just", "also",
		"research", "lab", "unknown",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}

package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer turns free text into normalized terms for the hashed embedder.
type Tokenizer struct {
	stopwords   map[string]struct{}
	foldPlurals bool
}

// NewTokenizer creates a new Tokenizer. With foldPlurals, regular English
// plurals are reduced to their singular form ("services" -> "service").
func NewTokenizer(foldPlurals bool) *Tokenizer {
	return &Tokenizer{
		stopwords:   defaultStopwords(),
		foldPlurals: foldPlurals,
	}
}

// Tokenize splits text into lowercased terms, dropping stopwords and single letters.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.foldPlurals {
			word = singular(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

func singular(word string) string {
	n := len(word)
	switch {
	case n > 4 && strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case n > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "us") && !strings.HasSuffix(word, "is"):
		return word[:n-1]
	}
	return word
}

// splitWords splits text into words using unicode letter and digit classes.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
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

// defaultStopwords returns a set of common English and Spanish stopwords.
// Source pages mix both languages.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "if", "or", "so",
		"no", "can", "do", "does", "did", "been", "being", "would",
		"could", "should", "may", "might", "which", "what", "when",
		"where", "why", "how", "all", "some", "than", "too", "very",
		"just", "also", "about", "into", "them", "there",
		"el", "la", "los", "las", "de", "del", "en", "un", "una",
		"y", "que", "por", "para", "con", "se", "su", "sus", "al",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}

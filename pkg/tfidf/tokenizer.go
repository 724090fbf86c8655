package tfidf

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// tokenPattern keeps tokens of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`^[\p{L}\p{N}_]{2,}$`)

// fieldSeparators split a feature string into its categorical fields before
// the word tokenizer runs, so "Seattle,Boy" never fuses into one token.
const fieldSeparators = ",;|"

// Tokenize splits text into word tokens. Single-character tokens and
// punctuation are dropped.
func Tokenize(text string, lowercase bool) []string {
	var tokens []string
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(fieldSeparators, r)
	})
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		doc, err := prose.NewDocument(field,
			prose.WithTagging(false),
			prose.WithSegmentation(false),
			prose.WithExtraction(false))
		if err != nil {
			tokens = appendMatching(tokens, strings.Fields(field), lowercase)
			continue
		}
		words := make([]string, 0, len(doc.Tokens()))
		for _, tok := range doc.Tokens() {
			words = append(words, tok.Text)
		}
		tokens = appendMatching(tokens, words, lowercase)
	}
	return tokens
}

func appendMatching(dst, words []string, lowercase bool) []string {
	for _, w := range words {
		if lowercase {
			w = strings.ToLower(w)
		}
		if tokenPattern.MatchString(w) {
			dst = append(dst, w)
		}
	}
	return dst
}

package lexical

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// TokenizerName is the registered name of the Korean-aware tokenizer.
const TokenizerName = "webtoon_korean"

// particles are trailing postpositions stripped from Hangul words so that
// "A와" and "A는" both match "A". Longest first.
var particles = func() []string {
	p := []string{
		"이랑", "에게", "에서", "한테", "께서", "으로", "부터", "까지", "처럼", "보다", "하고", "이나",
		"은", "는", "이", "가", "을", "를", "와", "과", "의", "도", "로", "랑", "만", "에", "나",
	}
	sort.SliceStable(p, func(i, j int) bool {
		return utf8.RuneCountInString(p[i]) > utf8.RuneCountInString(p[j])
	})
	return p
}()

func init() {
	_ = registry.RegisterTokenizer(TokenizerName, tokenizerConstructor)
}

func tokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &koreanTokenizer{}, nil
}

type koreanTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *koreanTokenizer) Tokenize(input []byte) analysis.TokenStream {
	var stream analysis.TokenStream
	pos := 1
	for _, w := range splitWords(string(input)) {
		stream = append(stream, &analysis.Token{
			Term:     []byte(w.text),
			Start:    w.start,
			End:      w.end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if stem, ok := stripParticle(w.text); ok {
			stream = append(stream, &analysis.Token{
				Term:     []byte(stem),
				Start:    w.start,
				End:      w.start + len(stem),
				Position: pos,
				Type:     analysis.AlphaNumeric,
			})
			pos++
		}
	}
	return stream
}

type word struct {
	text       string
	start, end int
}

// splitWords breaks text on every rune that is neither a letter nor a digit.
func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, word{text: text[start:i], start: start, end: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, word{text: text[start:], start: start, end: len(text)})
	}
	return words
}

// stripParticle removes one trailing particle from a word ending in Hangul.
func stripParticle(w string) (string, bool) {
	last, _ := utf8.DecodeLastRuneInString(w)
	if !unicode.Is(unicode.Hangul, last) {
		return "", false
	}
	for _, p := range particles {
		if strings.HasSuffix(w, p) && len(w) > len(p) {
			return strings.TrimSuffix(w, p), true
		}
	}
	return "", false
}

// Tokenize returns the lowercased terms the index would produce for text.
func Tokenize(text string) []string {
	stream := (&koreanTokenizer{}).Tokenize([]byte(text))
	terms := make([]string, 0, len(stream))
	for _, tok := range stream {
		terms = append(terms, strings.ToLower(string(tok.Term)))
	}
	return terms
}

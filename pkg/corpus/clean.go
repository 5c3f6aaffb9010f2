package corpus

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)

	// Known mojibake from the source FAQ export (UTF-8 read as Latin-1).
	// Longer patterns must come first so the bare "Ã" fallback does not
	// shadow them.
	encodingFixes = strings.NewReplacer(
		"Ã©", "é",
		"Ã¡", "á",
		"Ã§", "ç",
		"Ã£", "ã",
		"Ãµ", "õ",
		"Ãª", "ê",
		"Ãí", "í",
		"Ã", "í",
		"â€", "",
		"Â", "",
		"&#39;", "'",
		"\u00a0", " ",
	)

	phraseRewrites = strings.NewReplacer(
		"O que é", "Como funciona",
		"Qual é a diferença entre", "Diferença entre",
		"Quais são os benefícios de", "Benefícios de",
		"ex:", "por exemplo:",
	)

	simplifications = strings.NewReplacer(
		"em relação a", "sobre",
		"no que se refere a", "sobre",
	)

	// Exact-match answers that carry no information on their own
	vagueAnswers = map[string]struct{}{
		"sim":      {},
		"não":      {},
		"ok":       {},
		"obrigado": {},
		"obrigada": {},
	}
)

const (
	minContentLength = 15
	// A word dominating more than half of a text marks degenerate content
	maxWordFrequency = 0.5
	// The frequency filter only makes sense with enough words to count
	minWordsForFrequencyCheck = 5
)

// CleanText collapses whitespace, repairs known mis-encoded characters,
// strips HTML tags and applies the lexical normalizations used when the
// corpus was first curated.
func CleanText(text string) string {
	text = strings.TrimSpace(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = encodingFixes.Replace(text)
	text = htmlTagRe.ReplaceAllString(text, "")
	text = phraseRewrites.Replace(text)
	return text
}

// RewriteText collapses immediately-repeated substrings, simplifies a few
// wordy phrases and fixes the gender agreement of a leading article.
func RewriteText(text string) string {
	text = collapseRepeats(text)
	text = simplifications.Replace(text)
	if strings.HasPrefix(text, "A ") {
		text = "O " + text[len("A "):]
	}
	return text
}

// collapseRepeats reduces any immediately repeated substring to a single
// occurrence (XX...X -> X), preferring the longest repeating unit at each
// position.
func collapseRepeats(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		rest := s[i:]
		unitLen := 0
		for l := len(rest) / 2; l >= 1; l-- {
			if rest[:l] == rest[l:2*l] {
				unitLen = l
				break
			}
		}
		if unitLen == 0 {
			_, size := utf8.DecodeRuneInString(rest)
			b.WriteString(rest[:size])
			i += size
			continue
		}

		unit := rest[:unitLen]
		b.WriteString(unit)
		i += unitLen
		for strings.HasPrefix(s[i:], unit) {
			i += unitLen
		}
	}
	return b.String()
}

// IsValidContent rejects empty, too-short, vague or degenerate text
func IsValidContent(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if utf8.RuneCountInString(text) < minContentLength {
		return false
	}
	if _, vague := vagueAnswers[strings.ToLower(text)]; vague {
		return false
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) > minWordsForFrequencyCheck {
		counts := make(map[string]int, len(words))
		most := 0
		for _, w := range words {
			counts[w]++
			if counts[w] > most {
				most = counts[w]
			}
		}
		if float64(most)/float64(len(words)) > maxWordFrequency {
			return false
		}
	}
	return true
}

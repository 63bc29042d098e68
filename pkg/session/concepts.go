package session

import (
	"sort"
	"strings"
)

// stopWords are common Spanish function words that carry no topical
// signal. Only words longer than four runes are considered at all, so
// short ones are omitted.
var stopWords = map[string]struct{}{
	"sobre": {}, "entre": {}, "desde": {}, "hasta": {}, "durante": {},
	"también": {}, "porque": {}, "cuando": {}, "donde": {}, "mientras": {},
	"aunque": {}, "además": {}, "entonces": {}, "después": {}, "antes": {},
	"ahora": {}, "siempre": {}, "nunca": {}, "mucho": {}, "muchos": {},
	"muchas": {}, "otros": {}, "otras": {}, "estos": {}, "estas": {},
	"tiene": {}, "tienen": {}, "hacer": {}, "puede": {}, "pueden": {},
	"están": {}, "estamos": {}, "hemos": {}, "había": {}, "sería": {},
	"incluso": {}, "algunos": {}, "algunas": {}, "cosas": {}, "parte": {},
	"forma": {}, "manera": {}, "ejemplo": {}, "tiempo": {}, "bueno": {},
	"claro": {}, "decir": {}, "verdad": {}, "realmente": {},
}

const punctuation = `.,;:()[]{}¿?¡!"'«»-`

// ExtractConcepts returns up to max content words from text, ranked by
// frequency. Words are lowercased, stripped of punctuation, and must be
// longer than four runes and not a stop word.
func ExtractConcepts(text string, max int) []string {
	if max <= 0 {
		max = 3
	}
	counts := make(map[string]int)
	order := make(map[string]int)
	next := 0
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(token, punctuation)
		if len([]rune(word)) <= 4 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, seen := counts[word]; !seen {
			order[word] = next
			next++
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	// Frequency rank, first appearance breaking ties.
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return order[words[i]] < order[words[j]]
	})
	if len(words) > max {
		words = words[:max]
	}
	return words
}

// maxHintConcepts caps how many concepts the anti-repetition hint lists.
const maxHintConcepts = 10

// AntiRepetitionHint renders recently covered content into a prompt
// instruction listing the concepts to avoid. Empty input yields "".
func AntiRepetitionHint(recent []string) string {
	var concepts []string
	seen := make(map[string]struct{})
	for _, item := range recent {
		for _, c := range ExtractConcepts(item, 3) {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			concepts = append(concepts, c)
		}
	}
	if len(concepts) == 0 {
		return ""
	}
	if len(concepts) > maxHintConcepts {
		concepts = concepts[:maxHintConcepts]
	}
	return "CONTENIDO YA CUBIERTO (evitar repetir estos conceptos): " + strings.Join(concepts, ", ")
}

package chatbot

import (
	"strings"
	"unicode"

	"docvia-widget/internal/model"
)

const keywordWeight = 2

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "you": true, "your": true,
	"can": true, "how": true, "what": true, "does": true, "with": true, "this": true,
	"that": true, "have": true, "from": true, "about": true, "there": true, "is": true,
	"do": true, "to": true, "of": true, "in": true, "on": true, "my": true, "me": true,
	"it": true, "an": true, "be": true, "or": true, "at": true, "we": true, "i": true,
	"a": true,
}

// bestAnswer scores each entry by the query terms it shares with the entry's
// question, counting keyword hits double. The first highest-scoring entry wins.
func bestAnswer(entries []model.KnowledgeEntry, query string) (string, bool) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return "", false
	}

	bestScore := 0
	best := ""
	for _, entry := range entries {
		score := scoreEntry(entry, terms)
		if score > bestScore {
			bestScore = score
			best = entry.Answer
		}
	}
	return best, bestScore > 0
}

func scoreEntry(entry model.KnowledgeEntry, terms map[string]struct{}) int {
	keywords := make(map[string]struct{})
	for _, keyword := range entry.Keywords {
		for term := range tokenize(keyword) {
			keywords[term] = struct{}{}
		}
	}

	score := 0
	question := tokenize(entry.Question)
	for term := range terms {
		if _, ok := keywords[term]; ok {
			score += keywordWeight
		} else if _, ok := question[term]; ok {
			score++
		}
	}
	return score
}

func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		if stopWords[field] {
			continue
		}
		terms[field] = struct{}{}
	}
	return terms
}

package model

import "strings"

// Common Spanish action verbs that do not end in a regular infinitive
// suffix check alone would catch (e.g. "ir" is too short to trust).
var actionVerbs = map[string]bool{
	"ir":       true,
	"ver":      true,
	"dar":      true,
	"hacer":    true,
	"llamar":   true,
	"comprar":  true,
	"enviar":   true,
	"escribir": true,
	"revisar":  true,
	"leer":     true,
	"pagar":    true,
	"pedir":    true,
	"buscar":   true,
	"preparar": true,
	"agendar":  true,
	"terminar": true,
}

// ActionableScore rates how well-formed a next action is, 0-100.
// It rewards a leading infinitive verb, an explicit context and a
// reasonable length; vague one-worders score low.
func ActionableScore(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	score := 50
	words := strings.Fields(text)
	first := strings.ToLower(strings.Trim(words[0], ".,;:!?"))

	if actionVerbs[first] || startsWithInfinitive(first) {
		score += 25
	}
	if strings.Contains(text, "@") ||
		strings.Contains(strings.ToLower(text), " con ") ||
		strings.Contains(strings.ToLower(text), " en ") {
		score += 15
	}
	switch n := len(words); {
	case n == 1:
		score -= 25
	case n >= 3 && n <= 12:
		score += 10
	case n > 25:
		score -= 10
	}
	if len(text) < 6 {
		score -= 15
	}

	return clamp(score, 0, 100)
}

func startsWithInfinitive(word string) bool {
	if len(word) < 4 {
		return false
	}
	return strings.HasSuffix(word, "ar") ||
		strings.HasSuffix(word, "er") ||
		strings.HasSuffix(word, "ir")
}

package prompt

import "strings"

// Supported reply languages
const (
	LangSpanish = "es"
	LangEnglish = "en"
)

// Deliberately simple heuristic: fixed signal-word lists matched by
// substring containment (not word boundaries), so e.g. "important" scores a
// hit for "por". Behavior parity with the production heuristic matters more
// than linguistic accuracy here.
var spanishWords = []string{
	"qué", "cómo", "dónde", "cuándo", "por qué", "quién", "cuál", "cuáles",
	"cuántas", "cuántos", "hola", "gracias", "por", "para", "sobre", "desde",
	"hasta", "según", "debo", "puedo", "quiero", "necesito", "hacer",
	"ejercicio", "entrenamiento", "rutina", "serie", "repeticiones",
	"fuerza", "pecho", "espalda", "pierna", "gimnasio", "peso", "pesas",
}

var spanishChars = []string{"ñ", "á", "é", "í", "ó", "ú", "ü", "¿", "¡"}

var englishWords = []string{
	"what", "how", "where", "when", "why", "which", "who", "the", "and",
	"this", "that", "with", "from", "about", "should", "would", "could",
	"please", "thanks", "sets", "reps", "workout", "training", "exercise",
	"routine", "strength", "muscle", "weight", "program", "gym",
}

// Detect scores free text for Spanish vs. English signal and returns "es"
// or "en", defaulting to English when neither list matches.
func Detect(text string) string {
	es, en := detectScores(text)
	if es > 0 {
		return LangSpanish
	}
	if en > 0 {
		return LangEnglish
	}
	return LangEnglish
}

// detectScores returns the raw Spanish and English tallies. Spanish-only
// characters count double since they are a much stronger signal than a
// substring word hit.
func detectScores(text string) (spanish, english int) {
	lower := strings.ToLower(text)

	for _, w := range spanishWords {
		if strings.Contains(lower, w) {
			spanish++
		}
	}
	for _, ch := range spanishChars {
		if strings.Contains(lower, ch) {
			spanish += 2
		}
	}
	for _, w := range englishWords {
		if strings.Contains(lower, w) {
			english++
		}
	}
	return spanish, english
}

// ResolveLanguage decides the reply language for the whole turn. A current
// message with any signal decides outright; a zero-signal message falls back
// to a majority vote over the last three turns' user messages, tie goes to
// English. History is ordered oldest first.
func ResolveLanguage(currentMessage string, history []Turn) string {
	es, en := detectScores(currentMessage)
	if es > 0 {
		return LangSpanish
	}
	if en > 0 {
		return LangEnglish
	}

	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}

	spanishVotes, englishVotes := 0, 0
	for _, turn := range recent {
		if turn.UserMessage == "" {
			continue
		}
		if Detect(turn.UserMessage) == LangSpanish {
			spanishVotes++
		} else {
			englishVotes++
		}
	}

	if spanishVotes > englishVotes {
		return LangSpanish
	}
	return LangEnglish
}

// Turn is one prior user/assistant exchange, used for language context and
// the prompt transcript.
type Turn struct {
	UserMessage string
	BotResponse string
}

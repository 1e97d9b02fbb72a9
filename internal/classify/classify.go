// Package classify interprets unstructured candidate replies into a fixed set
// of response categories. Classification is stateless per call but consults
// prior conversation entries for context (a second reply to the same outreach
// reads differently from a first).
//
// The classifier is deterministic phrase matching over already-extracted
// text; it performs no NLP of its own. Ambiguous is the safe default: any
// input it cannot confidently categorize routes to a human.
package classify

import (
	"strings"

	"hirefunnel/internal/funnel/models"
)

// Phrase tables are matched against the lowercased reply. Order of checks
// matters: automated and explicit signals are checked before interest
// heuristics.
var (
	outOfOfficePhrases = []string{
		"out of office",
		"out of the office",
		"on vacation",
		"on annual leave",
		"on parental leave",
		"automatic reply",
		"auto-reply",
		"currently away",
		"limited access to email",
	}

	declinePhrases = []string{
		"not interested",
		"no longer interested",
		"not looking",
		"not a good fit for me",
		"accepted another offer",
		"accepted an offer",
		"withdraw my application",
		"please remove me",
		"stop contacting",
		"unsubscribe",
		"no thank you",
		"no thanks",
	}

	reschedulePhrases = []string{
		"reschedule",
		"different time",
		"another time",
		"move the interview",
		"move our call",
		"push the interview",
		"can we postpone",
		"something came up",
		"conflict with",
		"doesn't work for me anymore",
		"does not work for me anymore",
	}

	interestPhrases = []string{
		"interested",
		"sounds great",
		"sounds good",
		"i'd love to",
		"i would love to",
		"happy to chat",
		"happy to talk",
		"let's schedule",
		"lets schedule",
		"works for me",
		"looking forward",
		"keen to",
		"count me in",
		"yes, please",
	}

	escalationPhrases = []string{
		"legal",
		"lawyer",
		"attorney",
		"complaint",
		"discrimination",
		"harassment",
		"visa",
		"sponsorship",
		"relocation package",
		"counter offer",
		"salary negotiation",
	}

	// Negations immediately preceding an interest phrase flip its meaning.
	negations = []string{"not ", "no longer ", "isn't ", "is not ", "don't think i'm ", "wouldn't say i'm "}
)

// Classify maps one inbound reply onto a response category. The history is
// the candidate's conversation log so far, oldest first.
func Classify(message string, history []models.Message) models.Category {
	text := normalize(message)
	if text == "" {
		return models.CategoryAmbiguous
	}

	// Automated replies are recognized regardless of other content.
	if containsAny(text, outOfOfficePhrases) {
		return models.CategoryOutOfOffice
	}

	// Topics that must never be auto-handled go straight to a human.
	if containsAny(text, escalationPhrases) {
		return models.CategoryNeedsHumanReview
	}

	declined := containsAny(text, declinePhrases)
	reschedule := containsAny(text, reschedulePhrases)
	interested := hasInterest(text)

	// Contradictory signals are not guessed at.
	if declined && (interested || reschedule) {
		return models.CategoryAmbiguous
	}
	if declined {
		return models.CategoryNotInterested
	}
	if reschedule {
		return models.CategoryNeedsReschedule
	}
	if interested {
		// A short follow-up after an earlier reschedule request usually
		// confirms new availability rather than fresh interest.
		if lastInboundCategory(history) == models.CategoryNeedsReschedule {
			return models.CategoryNeedsReschedule
		}
		return models.CategoryInterested
	}

	return models.CategoryAmbiguous
}

func hasInterest(text string) bool {
	for _, phrase := range interestPhrases {
		idx := strings.Index(text, phrase)
		if idx < 0 {
			continue
		}
		if negated(text, idx) {
			continue
		}
		return true
	}
	return false
}

// negated reports whether the window right before idx contains a negation.
func negated(text string, idx int) bool {
	start := idx - 24
	if start < 0 {
		start = 0
	}
	window := text[start:idx]
	for _, n := range negations {
		if strings.Contains(window, n) {
			return true
		}
	}
	return false
}

func lastInboundCategory(history []models.Message) models.Category {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Direction == models.DirectionInbound {
			return history[i].Category
		}
	}
	return ""
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

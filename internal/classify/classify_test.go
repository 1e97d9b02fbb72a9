package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hirefunnel/internal/funnel/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    models.Category
	}{
		{"plain interest", "I'm interested, let's schedule a call", models.CategoryInterested},
		{"enthusiastic interest", "Sounds great, happy to chat next week!", models.CategoryInterested},
		{"plain decline", "I'm not interested, thanks", models.CategoryNotInterested},
		{"accepted elsewhere", "I've accepted another offer.", models.CategoryNotInterested},
		{"unsubscribe", "Please remove me from your list. Unsubscribe.", models.CategoryNotInterested},
		{"reschedule", "Something came up, can we find a different time?", models.CategoryNeedsReschedule},
		{"out of office", "Automatic reply: I am out of office until Monday.", models.CategoryOutOfOffice},
		{"ooo beats interest", "Out of office. I'm interested though, will reply next week.", models.CategoryOutOfOffice},
		{"visa escalation", "Would you be able to support visa sponsorship?", models.CategoryNeedsHumanReview},
		{"legal escalation", "My lawyer will be in touch about this.", models.CategoryNeedsHumanReview},
		{"empty reply", "   ", models.CategoryAmbiguous},
		{"no signal", "Thanks for reaching out.", models.CategoryAmbiguous},
		{"negated interest", "I'm not interested in this role.", models.CategoryNotInterested},
		{"negation without decline phrase", "I don't think I'm interested.", models.CategoryAmbiguous},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.message, nil))
		})
	}
}

// Contradictory signals must never be guessed at: the reply routes to a
// human rather than auto-advancing or auto-rejecting.
func TestClassifyContradictorySignals(t *testing.T) {
	cases := []string{
		"I'm not interested, although honestly the role sounds great",
		"Please withdraw my application. Also, can we reschedule?",
	}
	for _, msg := range cases {
		got := Classify(msg, nil)
		assert.Equal(t, models.CategoryAmbiguous, got, "message: %s", msg)
		assert.True(t, got.RequiresHuman())
	}
}

func TestClassifyUsesHistory(t *testing.T) {
	history := []models.Message{
		{Direction: models.DirectionOutbound, Text: "template:initial_contact"},
		{Direction: models.DirectionInbound, Text: "can we reschedule?", Category: models.CategoryNeedsReschedule},
	}

	t.Run("short confirmation after a reschedule reads as availability", func(t *testing.T) {
		got := Classify("Tuesday works for me", history)
		assert.Equal(t, models.CategoryNeedsReschedule, got)
	})

	t.Run("same confirmation without reschedule context reads as interest", func(t *testing.T) {
		got := Classify("Tuesday works for me", nil)
		assert.Equal(t, models.CategoryInterested, got)
	})
}

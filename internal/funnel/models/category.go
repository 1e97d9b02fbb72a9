package models

// Category is the fixed set of classifications for an inbound candidate
// reply. Ambiguous is the safe default: anything the classifier cannot
// confidently categorize maps here, and orchestration treats it exactly like
// needs_human_review: routed to a human, never auto-rejected or
// auto-advanced.
type Category string

const (
	CategoryInterested       Category = "interested"
	CategoryNotInterested    Category = "not_interested"
	CategoryNeedsReschedule  Category = "needs_reschedule"
	CategoryNeedsHumanReview Category = "needs_human_review"
	CategoryOutOfOffice      Category = "out_of_office"
	CategoryAmbiguous        Category = "ambiguous"
)

// RequiresHuman reports whether the category routes to a human instead of
// auto-advancing.
func (c Category) RequiresHuman() bool {
	return c == CategoryNeedsHumanReview || c == CategoryAmbiguous
}

// Package classifier assigns an urgency flag and a canned-response
// category to message text. Classification is pure keyword matching:
// no state, no I/O, identical input always yields identical output.
package classifier

import "strings"

// Category is the canned-response bucket a message falls into.
type Category string

const (
	CategoryLoanReview     Category = "loan_review"
	CategoryVerification   Category = "verification"
	CategoryFeedback       Category = "feedback"
	CategorySupportRequest Category = "support_request"
	CategoryGeneric        Category = "generic"
)

// urgentKeywords flags a message for priority handling. Evaluated
// independently of the category keywords: a message can be both urgent
// and generic.
var urgentKeywords = []string{
	"loan", "approval", "disburse", "rejected", "clearance", "crb", "salary", "urgent", "review", "denied",
}

// categoryKeywords are checked in order; the first matching category wins.
var categoryKeywords = []struct {
	category Category
	keywords []string
}{
	{CategoryLoanReview, []string{"loan", "approval", "review"}},
	{CategoryVerification, []string{"phone number", "verify"}},
	{CategoryFeedback, []string{"feedback", "suggestion"}},
	{CategorySupportRequest, []string{"help", "support", "human"}},
}

// Result holds the classification of one message text.
type Result struct {
	Urgent   bool
	Category Category
}

// Classify matches text against the fixed keyword sets, case-insensitive
// and by substring. Text matching no category keyword is generic.
func Classify(text string) Result {
	lowered := strings.ToLower(text)

	res := Result{Category: CategoryGeneric}
	for _, kw := range urgentKeywords {
		if strings.Contains(lowered, kw) {
			res.Urgent = true
			break
		}
	}

	for _, set := range categoryKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lowered, kw) {
				res.Category = set.category
				return res
			}
		}
	}

	return res
}

// IsUrgent reports whether text contains any urgency keyword.
func IsUrgent(text string) bool {
	return Classify(text).Urgent
}

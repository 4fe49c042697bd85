// Package autoreply builds the automated canned reply for an inbound
// customer message, and exposes the separate canned table agents pick
// manual replies from.
package autoreply

import (
	"supportdesk/internal/classifier"
	"supportdesk/internal/model"
)

// cannedBodies maps each classifier category to its fixed reply text.
var cannedBodies = map[classifier.Category]string{
	classifier.CategoryLoanReview:     "Your loan application is currently under review.",
	classifier.CategoryVerification:   "Please provide your registered phone number for verification.",
	classifier.CategoryFeedback:       "Thank you for your feedback! We value your input.",
	classifier.CategorySupportRequest: "A human agent will assist you shortly.",
	classifier.CategoryGeneric:        "Thank you for reaching out! We'll get back to you soon.",
}

// Reply builds the automated reply for one inbound message text. Exactly
// one reply is produced for any input; urgent-flagged inputs get high
// priority. The caller persists and broadcasts the result.
func Reply(inboundText string) model.Message {
	res := classifier.Classify(inboundText)

	priority := model.PriorityNormal
	if res.Urgent {
		priority = model.PriorityHigh
	}

	return model.Message{
		Sender:   model.SenderAgentBot,
		Text:     cannedBodies[res.Category],
		Priority: priority,
	}
}

// CannedMessage is one manually selectable agent reply.
type CannedMessage struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// CannedMessages returns the fixed table agents pick manual replies
// from. Distinct from the auto-reply table above; both are exposed.
func CannedMessages() []CannedMessage {
	return []CannedMessage{
		{ID: 1, Text: "Thank you for contacting us! We’ll get back to you shortly."},
		{ID: 2, Text: "Your loan application is currently under review."},
		{ID: 3, Text: "Please provide your registered phone number for verification."},
	}
}

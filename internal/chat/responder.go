package chat

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
)

// Responder produces the text of an agent reply to a user message.
type Responder interface {
	Reply(text string) string
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(text string) string

// Reply calls f(text).
func (f ResponderFunc) Reply(text string) string {
	return f(text)
}

// CannedReplies is the fixed reply set used when nothing more specific
// matches.
var CannedReplies = []string{
	"Thank you for contacting us. Let me help you with that.",
	"I understand your concern. Let me check that for you right away.",
	"That's a great question! Here's what I can tell you...",
	"I'm here to help. Can you provide me with more details about your issue?",
	"Let me connect you with the right department for this inquiry.",
}

// FAQ is one frequently asked question.
type FAQ struct {
	Question string
	Answer   string
}

// FAQs lists the answers returned for "faq" requests.
var FAQs = []FAQ{
	{"What are your operating hours?", "We are open Monday to Saturday, 8:00 AM to 6:00 PM. Closed on Sundays and holidays."},
	{"How do I book an appointment?", "You can book online through our website after registration, or call us at (043) 286-2531."},
	{"What payment methods do you accept?", "We accept cash, GCash, PayMaya, bank transfers, credit cards, HMO, and cheque payments."},
	{"How long does it take to get test results?", "Most test results are available within 24-48 hours. Complex tests may take 3-5 days."},
	{"Do you accept walk-in patients?", "Yes, but appointments are recommended for faster service and guaranteed availability."},
}

type keywordReply struct {
	keyword string
	reply   string
}

// keywordReplies is checked in order; the first match wins.
var keywordReplies = []keywordReply{
	// Greetings
	{"hello", "Hello! Welcome to our laboratory. How can I assist you today?"},
	{"hi", "Hi there! I'm here to help you with any questions about our laboratory services."},
	{"good morning", "Good morning! How can I help you today?"},
	{"good afternoon", "Good afternoon! What can I do for you?"},
	{"good evening", "Good evening! How may I assist you?"},

	// Services
	{"services", "We offer comprehensive laboratory services including blood tests, X-rays, ultrasound, ECG, microscopy, and genetic testing. Would you like details about any specific service?"},
	{"blood test", "Our blood tests include complete blood count (₱350), lipid profile, blood sugar, liver function, and kidney function tests."},
	{"xray", "We provide digital X-ray services for chest, bone, and joint examinations. Price: ₱500, Duration: 15 minutes."},
	{"ultrasound", "High-resolution ultrasound imaging for abdominal, pelvic, and cardiac examinations. Price: ₱800, Duration: 30 minutes."},
	{"ecg", "Electrocardiogram testing for heart health monitoring. Price: ₱400, Duration: 20 minutes."},

	// Appointments
	{"appointment", "To book an appointment, please login and visit our booking page, or call us at (043) 286-2531. You can book online 24/7."},
	{"book", "You can book appointments online through our website after logging in, or call (043) 286-2531."},
	{"schedule", "Our laboratory is open Monday to Saturday, 8:00 AM to 6:00 PM. You can schedule appointments during these hours."},
	{"cancel", "To cancel an appointment, please login to your account and go to your dashboard, or call us at (043) 286-2531."},

	// Payment
	{"payment", "We accept cash, GCash, PayMaya, bank transfers, credit cards, HMO, and cheque payments. We also offer installment options and financial assistance."},
	{"financial assistance", "We offer various financial assistance options including HMO coverage, senior citizen discounts, PWD discounts, and flexible payment plans."},
	{"hmo", "We accept most HMO providers with up to 80% coverage. Please bring your HMO card and valid ID."},
	{"installment", "We offer flexible installment payment plans for expensive procedures. Please inquire at our reception."},

	// Results and certificates
	{"results", "Test results are usually available within 24-48 hours. You will be notified via SMS/email when ready. You can also check online through your patient portal."},
	{"medical certificate", "We issue various medical certificates including fitness certificates, sick leave certificates, and employment clearances. Please request through your patient dashboard."},

	// Support
	{"emergency", "For medical emergencies, please call 911 or go to the nearest emergency room. Our laboratory provides diagnostic services, not emergency care."},
	{"help", "I can help you with information about our services, booking appointments, payment options, test results, and general inquiries. What would you like to know?"},

	// Contact
	{"contact", "You can reach us at (043) 286-2531 or email info@maeslaboratory.com. We're also available through this chat during business hours."},
	{"hours", "We are open Monday to Saturday, 8:00 AM to 6:00 PM. We are closed on Sundays and holidays."},
	{"location", "We are located in Batangas City, Philippines. Please visit our contact page for the exact address and directions."},
}

var liveAgentPhrases = []string{"live admin", "live agent", "human", "representative"}

// KeywordResponder answers from a fixed keyword table and falls back to a
// randomly chosen canned reply.
type KeywordResponder struct {
	intn func(n int) int
}

// NewKeywordResponder returns a KeywordResponder. intn picks the canned
// fallback index; nil uses math/rand.
func NewKeywordResponder(intn func(n int) int) *KeywordResponder {
	if intn == nil {
		intn = rand.Intn
	}
	return &KeywordResponder{intn: intn}
}

// Reply returns the answer for text.
func (r *KeywordResponder) Reply(text string) string {
	words := tokenize(text)

	if containsPhrase(words, "faq") || containsPhrase(words, "frequently asked") {
		return FAQText()
	}
	if WantsLiveAgent(text) {
		return "I'm connecting you to a live administrator. Please provide your contact details and we'll have someone assist you within 15 minutes."
	}
	for _, kr := range keywordReplies {
		if containsPhrase(words, kr.keyword) {
			return kr.reply
		}
	}

	i := r.intn(len(CannedReplies))
	if i < 0 || i >= len(CannedReplies) {
		i = 0
	}
	return CannedReplies[i]
}

// WantsLiveAgent reports whether text asks for a human.
func WantsLiveAgent(text string) bool {
	words := tokenize(text)
	for _, p := range liveAgentPhrases {
		if containsPhrase(words, p) {
			return true
		}
	}
	return false
}

// FAQText renders FAQs as a numbered list.
func FAQText() string {
	var b strings.Builder
	b.WriteString("Here are our frequently asked questions:\n")
	for i, f := range FAQs {
		fmt.Fprintf(&b, "\n%d. Q: %s\n   A: %s\n", i+1, f.Question, f.Answer)
	}
	return b.String()
}

// tokenize lower-cases text and splits it into words, dropping punctuation.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsPhrase reports whether the words of phrase appear consecutively
// in words. Inflected forms of a longer last word also match.
func containsPhrase(words []string, phrase string) bool {
	want := strings.Fields(phrase)
	if len(want) == 0 || len(want) > len(words) {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		match := true
		for j, w := range want {
			got := words[i+j]
			if got == w {
				continue
			}
			if j == len(want)-1 && len(w) > 3 && (got == w+"s" || got == w+"ing" || got == w+"ed") {
				continue
			}
			match = false
			break
		}
		if match {
			return true
		}
	}
	return false
}

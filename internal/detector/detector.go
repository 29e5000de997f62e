package detector

import "strings"

const (
	// Confidence values are fixed per branch; keyword containment is a binary
	// signal, not a continuous score.
	botConfidence   = 0.8
	humanConfidence = 0.2
)

// DefaultBotKeywords is used when no keyword list is configured.
var DefaultBotKeywords = []string{"bot", "crawler", "spider", "curl"}

// Result is a single classification verdict.
type Result struct {
	IsBot      bool    `json:"is_bot"`
	Confidence float64 `json:"confidence"`
}

// Detector classifies User-Agent strings by keyword containment.
// It is stateless and safe for concurrent use.
type Detector struct {
	keywords []string
}

// New builds a Detector from the configured keyword list. Keywords are
// matched lower-cased; an empty list falls back to DefaultBotKeywords.
func New(keywords []string) *Detector {
	if len(keywords) == 0 {
		keywords = DefaultBotKeywords
	}
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kws = append(kws, k)
		}
	}
	return &Detector{keywords: kws}
}

// Classify maps a raw User-Agent header to a bot verdict.
// A missing header is treated as an empty string and is never a bot.
func (d *Detector) Classify(userAgent string) Result {
	ua := strings.ToLower(userAgent)
	for _, kw := range d.keywords {
		if strings.Contains(ua, kw) {
			return Result{IsBot: true, Confidence: botConfidence}
		}
	}
	return Result{IsBot: false, Confidence: humanConfidence}
}

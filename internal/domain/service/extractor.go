package service

import (
	"regexp"
	"strconv"
	"strings"
)

// donationKeywords is a cheap substring pre-filter. A message containing none
// of these cannot match any extraction rule, so it is rejected before the
// regexp table is consulted.
var donationKeywords = []string{
	"donated", "donation", "contribute", "clan",
	"gave", "treasury", "deposited", "coins", "rubies",
}

// extractionRules is an ordered priority table. More specific phrasings come
// first so ambiguous text resolves to the most confident interpretation; the
// first rule whose capture parses as an integer wins.
var extractionRules = []*regexp.Regexp{
	regexp.MustCompile(`donated\s+\*\*(\d+(?:,\d+)*)\*\*\s+gold`),
	regexp.MustCompile(`you have donated\s+\*\*(\d+(?:,\d+)*)\*\*\s+gold`),
	regexp.MustCompile(`donated\s+(\d+(?:,\d+)*)\s+coins?`),
	regexp.MustCompile(`contributed\s+(\d+(?:,\d+)*)\s+coins?`),
	regexp.MustCompile(`gave\s+(\d+(?:,\d+)*)\s+coins?`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+coins?\s+donated`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+coins?\s+to\s+the\s+clan`),
	regexp.MustCompile(`clan donation.*?(\d+(?:,\d+)*)`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+coins?\s+added\s+to\s+clan`),
	regexp.MustCompile(`clan\s+treasury.*?(\d+(?:,\d+)*)`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+coins?\s+clan\s+donation`),
	regexp.MustCompile(`deposited\s+(\d+(?:,\d+)*)\s+coins?`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+coins?\s+deposited`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+rubies?\s+donated`),
	regexp.MustCompile(`donated\s+(\d+(?:,\d+)*)\s+rubies?`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+rubies?\s+to\s+the\s+clan`),
	regexp.MustCompile(`(\d+(?:,\d+)*)\s+rubies?\s+added\s+to\s+clan`),
}

// Extractor turns raw message text into an optional donation amount.
// It is stateless and safe for concurrent use.
type Extractor struct {
	keywords []string
	rules    []*regexp.Regexp
}

func NewExtractor() *Extractor {
	return &Extractor{
		keywords: donationKeywords,
		rules:    extractionRules,
	}
}

// Extract returns the donation amount embedded in text, with thousands
// separators stripped. ok is false when the text is not a donation
// announcement or no rule captures a parsable amount.
func (e *Extractor) Extract(text string) (amount int64, ok bool) {
	lower := strings.ToLower(text)

	if !e.containsKeyword(lower) {
		return 0, false
	}

	for _, rule := range e.rules {
		m := rule.FindStringSubmatch(lower)
		if m == nil {
			continue
		}

		digits := strings.ReplaceAll(m[1], ",", "")
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			// Malformed or overflowing capture: fall through to the next rule
			continue
		}
		return n, true
	}

	return 0, false
}

// ExtractFromSources tries the message body, then the embed description,
// then the embed title, stopping at the first source that yields an amount.
func (e *Extractor) ExtractFromSources(body, embedDescription, embedTitle string) (int64, bool) {
	for _, text := range []string{body, embedDescription, embedTitle} {
		if text == "" {
			continue
		}
		if amount, ok := e.Extract(text); ok {
			return amount, true
		}
	}
	return 0, false
}

func (e *Extractor) containsKeyword(lower string) bool {
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

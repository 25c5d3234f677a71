package service

import (
	"regexp"
	"sort"
	"strings"
)

var (
	mentionRE    = regexp.MustCompile(`^<@!?(\d+)>$`)
	decorationRE = regexp.MustCompile(`[^a-zA-Z0-9\s\-_.]`)
	multiSpaceRE = regexp.MustCompile(`\s+`)
)

// Resolver attributes a detected donation to a registered player.
// Explicit mentions win over name matching: a mention is unambiguous while
// substring search can false-positive on short or generic names.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the identity of the player the donation belongs to.
//
// Mentions are checked first, in order; the first one present in the roster
// wins. Otherwise the roster is scanned in sorted-identity order and the
// first player whose cleaned display name occurs as a case-insensitive
// substring of searchable is chosen. ok is false when nobody matches.
func (r *Resolver) Resolve(mentions []string, searchable string, roster map[string]string) (identity string, ok bool) {
	for _, mention := range mentions {
		id := NormalizeMention(mention)
		if _, registered := roster[id]; registered {
			return id, true
		}
	}

	lowerText := strings.ToLower(searchable)

	// Stable scan order so repeated runs over the same roster agree.
	ids := make([]string, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		name := CleanPlayerName(roster[id])
		if name == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(name)) {
			return id, true
		}
	}

	return "", false
}

// NormalizeMention strips the chat transport's mention markup (<@123> or
// <@!123>) down to the bare identity. Already-bare identities pass through.
func NormalizeMention(mention string) string {
	if m := mentionRE.FindStringSubmatch(mention); m != nil {
		return m[1]
	}
	return mention
}

// CleanPlayerName strips decoration characters and collapses whitespace so
// display names can be searched for inside free text.
func CleanPlayerName(name string) string {
	cleaned := decorationRE.ReplaceAllString(name, "")
	cleaned = multiSpaceRE.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Package classname turns portal class descriptions into short display names.
package classname

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"gradewatch/internal/model"
)

// Rule is one case-insensitive substitution. A terminal rule ends the
// rule walk as soon as it matches.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
	Terminal    bool
}

func rewrite(pattern, replacement string) Rule {
	return Rule{Pattern: regexp.MustCompile("(?i)" + pattern), Replacement: replacement}
}

func collapse(prefix, name string) Rule {
	return Rule{Pattern: regexp.MustCompile("(?i)^" + prefix + ".*$"), Replacement: name, Terminal: true}
}

// DefaultRules is the ordered rule list. Order matters: the suffix strip
// runs first, then the first matching collapse rule wins.
var DefaultRules = []Rule{
	rewrite(`e taal$`, ""),
	collapse("cambridge", "engels"),
	collapse("latijn", "latijn"),
	collapse("grieks", "grieks"),
	collapse("spaans", "spaans"),
	collapse("nederlands", "nederlands"),
	collapse("levensbesch", "levensbeschouwing"),
	collapse("lichamelijke opv", "gym"),
	collapse("informatiekund", "informatiekunde"),
}

// Normalizer applies an ordered rule list.
type Normalizer struct {
	rules []Rule
}

// New returns a Normalizer over rules, or DefaultRules when rules is empty.
func New(rules ...Rule) *Normalizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Normalizer{rules: rules}
}

// Index builds the id lookup used by Normalize.
func Index(classes []model.ClassInfo) map[string]model.ClassInfo {
	byID := make(map[string]model.ClassInfo, len(classes))
	for _, c := range classes {
		byID[c.ID] = c
	}
	return byID
}

// Normalize resolves the display name of ref. Unknown classes keep their
// abbreviation.
func (n *Normalizer) Normalize(ref model.ClassRef, classesByID map[string]model.ClassInfo) string {
	info, ok := classesByID[ref.ID]
	if !ok {
		return ref.Abbreviation
	}

	name := info.Description
	for _, r := range n.rules {
		if !r.Pattern.MatchString(name) {
			continue
		}
		name = r.Pattern.ReplaceAllString(name, r.Replacement)
		if r.Terminal {
			break
		}
	}
	return upperFirst(name)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

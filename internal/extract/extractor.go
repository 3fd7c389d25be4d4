package extract

import (
	"regexp"

	"github.com/bft-labs/mailship/internal/domain"
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Extractor pulls addresses out of text and filters them through its rules.
// The zero value has no rules; use New.
type Extractor struct {
	rules []Rule
}

// New returns an Extractor using rules, or DefaultRules when none are given.
func New(rules ...Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{rules: rules}
}

// Rules returns the rules in evaluation order.
func (x *Extractor) Rules() []Rule {
	return append([]Rule(nil), x.rules...)
}

// Extract returns the distinct accepted addresses in text, lower-cased, in
// order of first appearance.
func (x *Extractor) Extract(text string) []domain.Address {
	var out []domain.Address
	x.scan(text, func(addr domain.Address, rule string) {
		if rule == "" {
			out = append(out, addr)
		}
	})
	return out
}

// Rejection is a candidate dropped by a rule.
type Rejection struct {
	Address domain.Address
	Rule    string
}

// Rejected returns the distinct candidates in text that a rule dropped.
func (x *Extractor) Rejected(text string) []Rejection {
	var out []Rejection
	x.scan(text, func(addr domain.Address, rule string) {
		if rule != "" {
			out = append(out, Rejection{Address: addr, Rule: rule})
		}
	})
	return out
}

// scan calls fn once per distinct candidate; rule is empty for accepted
// addresses.
func (x *Extractor) scan(text string, fn func(addr domain.Address, rule string)) {
	seen := make(map[domain.Address]struct{})
	for _, m := range emailPattern.FindAllString(text, -1) {
		addr := domain.NormalizeAddress(m)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}

		fn(addr, x.rejectedBy(addr))
	}
}

func (x *Extractor) rejectedBy(addr domain.Address) string {
	for _, r := range x.rules {
		if r.Reject(addr) {
			return r.Name
		}
	}
	return ""
}

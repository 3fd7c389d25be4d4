package extract

import (
	"strings"

	"github.com/bft-labs/mailship/internal/domain"
)

// Rule rejects candidate addresses that are almost certainly noise.
type Rule struct {
	// Name identifies the rule in debug output.
	Name string

	// Reject returns true when addr must be dropped. addr is already normalised.
	Reject func(addr domain.Address) bool
}

// MinAddressLength is the shortest address the too-short rule accepts.
const MinAddressLength = 5

// PlaceholderDomains are domains used in sample text rather than real contacts.
var PlaceholderDomains = []string{"example.com", "example.org", "example.net", "domain.com"}

// GeneratedPrefixes are local-part prefixes produced by image and file names
// that happen to contain an '@'.
var GeneratedPrefixes = []string{"img_"}

// DefaultRules returns the standard rule list, in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		PlaceholderDomainRule(PlaceholderDomains...),
		MinLengthRule(MinAddressLength),
		GeneratedPrefixRule(GeneratedPrefixes...),
	}
}

// PlaceholderDomainRule rejects addresses whose domain is one of domains or a
// subdomain of one.
func PlaceholderDomainRule(domains ...string) Rule {
	return Rule{
		Name: "placeholder-domain",
		Reject: func(addr domain.Address) bool {
			d := addr.Domain()
			for _, p := range domains {
				if d == p || strings.HasSuffix(d, "."+p) {
					return true
				}
			}
			return false
		},
	}
}

// MinLengthRule rejects addresses shorter than n characters.
func MinLengthRule(n int) Rule {
	return Rule{
		Name: "too-short",
		Reject: func(addr domain.Address) bool {
			return len(addr) < n
		},
	}
}

// GeneratedPrefixRule rejects addresses whose local part starts with any of prefixes.
func GeneratedPrefixRule(prefixes ...string) Rule {
	return Rule{
		Name: "generated-prefix",
		Reject: func(addr domain.Address) bool {
			local := addr.Local()
			for _, p := range prefixes {
				if strings.HasPrefix(local, p) {
					return true
				}
			}
			return false
		},
	}
}

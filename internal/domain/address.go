package domain

import (
	"strings"
	"time"
)

// Address is a contact email address. Values produced by the extractor are
// already normalised; use NormalizeAddress for anything read from disk.
type Address string

// NormalizeAddress trims surrounding whitespace and lower-cases s.
// All membership checks in the queue and the ledger compare normalised forms.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// String returns the address as a plain string.
func (a Address) String() string {
	return string(a)
}

// Local returns the part before the last '@', or the whole address if none.
func (a Address) Local() string {
	s := string(a)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[:i]
	}
	return s
}

// Domain returns the part after the last '@', or "" if none.
func (a Address) Domain() string {
	s := string(a)
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// LedgerEntry records when an address was last emailed.
type LedgerEntry struct {
	Address    Address
	LastSentAt time.Time
}

// ExpiresAt returns the instant the entry leaves the cooldown window.
func (e LedgerEntry) ExpiresAt(window time.Duration) time.Time {
	return e.LastSentAt.Add(window)
}

// Dedupe returns addrs normalised, with later repeats dropped. Order is preserved.
func Dedupe(addrs []Address) []Address {
	seen := make(map[Address]struct{}, len(addrs))
	out := make([]Address, 0, len(addrs))
	for _, a := range addrs {
		n := NormalizeAddress(string(a))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

package mail

import "strings"

// SenderKind says what to do with a message from a given sender.
type SenderKind int

const (
	// SenderIgnored messages are dropped.
	SenderIgnored SenderKind = iota
	// SenderPublisher messages are new issues: processed and delivered.
	SenderPublisher
	// SenderSeed messages are back issues forwarded by hand: processed and stored only.
	SenderSeed
)

func (k SenderKind) String() string {
	switch k {
	case SenderPublisher:
		return "publisher"
	case SenderSeed:
		return "seed"
	default:
		return "ignored"
	}
}

// DefaultSenders are the publisher addresses newsletters arrive from.
var DefaultSenders = []string{"noreply@news.bloomberg.com", "noreply@bloomberg.net"}

// SenderPolicy decides which senders are accepted.
type SenderPolicy struct {
	Allowed []string
	Seed    string
}

// NewSenderPolicy returns a policy for the default publisher senders plus seed.
func NewSenderPolicy(seed string, extra ...string) SenderPolicy {
	allowed := append(append([]string{}, DefaultSenders...), extra...)
	return SenderPolicy{Allowed: allowed, Seed: seed}
}

// Classify matches from case-insensitively against the policy. Publisher senders win
// over the seed sender.
func (p SenderPolicy) Classify(from string) SenderKind {
	from = strings.ToLower(strings.TrimSpace(from))
	if from == "" {
		return SenderIgnored
	}
	for _, allowed := range p.Allowed {
		if allowed != "" && strings.Contains(from, strings.ToLower(allowed)) {
			return SenderPublisher
		}
	}
	if p.Seed != "" && strings.Contains(from, strings.ToLower(p.Seed)) {
		return SenderSeed
	}
	return SenderIgnored
}

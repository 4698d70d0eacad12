package remediate

// Policy is the safety policy of a remediation pass: a whitelist of
// protected process names and a cap on how many distinct names may be killed.
type Policy struct {
	budget    int
	whitelist map[string]struct{}
	ordered   []string
}

// NewPolicy creates an immutable policy. Whitelist matching is exact and
// case-sensitive. A negative budget is treated as zero.
func NewPolicy(whitelist []string, budget int) Policy {
	if budget < 0 {
		budget = 0
	}
	p := Policy{
		budget:    budget,
		whitelist: make(map[string]struct{}, len(whitelist)),
	}
	for _, name := range whitelist {
		if _, dup := p.whitelist[name]; dup {
			continue
		}
		p.whitelist[name] = struct{}{}
		p.ordered = append(p.ordered, name)
	}
	return p
}

// Budget returns the maximum number of distinct names killed per pass
func (p Policy) Budget() int {
	return p.budget
}

// IsWhitelisted reports whether name must never be signalled
func (p Policy) IsWhitelisted(name string) bool {
	_, ok := p.whitelist[name]
	return ok
}

// Whitelist returns a copy of the whitelist in configuration order
func (p Policy) Whitelist() []string {
	out := make([]string, len(p.ordered))
	copy(out, p.ordered)
	return out
}

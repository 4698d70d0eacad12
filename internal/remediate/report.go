package remediate

import "fmt"

// Action is what the engine decided for a candidate name
type Action int

const (
	ActionKilled       Action = iota // signalled every resolved PID
	ActionWhitelisted                // protected name, skipped
	ActionUnresolved                 // no live process with that name
	ActionLimitReached               // budget exhausted, pass stopped here
	ActionLookupFailed               // process table could not be read
	ActionWouldKill                  // dry run only
)

func (a Action) String() string {
	switch a {
	case ActionKilled:
		return "killed"
	case ActionWhitelisted:
		return "whitelisted"
	case ActionUnresolved:
		return "unresolved"
	case ActionLimitReached:
		return "limit-reached"
	case ActionLookupFailed:
		return "lookup-failed"
	case ActionWouldKill:
		return "would-kill"
	default:
		return "unknown"
	}
}

// Decision records the outcome for one candidate process name
type Decision struct {
	Name   string  `json:"name"`
	PIDs   []int32 `json:"pids,omitempty"`
	Action Action  `json:"action"`
	Detail string  `json:"detail,omitempty"`
}

// MarshalText renders Action by name in JSON output
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Report is the result of one remediation pass
type Report struct {
	Candidates []string   `json:"candidates"`
	Decisions  []Decision `json:"decisions"`
	Killed     int        `json:"killed"`
	QueryErr   error      `json:"-"`
}

// ShouldRetry reports whether a second hibernate attempt is warranted
func (r *Report) ShouldRetry() bool {
	return r != nil && r.Killed > 0
}

// Count returns the number of decisions with the given action
func (r *Report) Count(action Action) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Action == action {
			n++
		}
	}
	return n
}

// Summary is a one-line description of the pass
func (r *Report) Summary() string {
	if r.QueryErr != nil {
		return fmt.Sprintf("audit query failed: %v", r.QueryErr)
	}
	return fmt.Sprintf("candidates=%d killed=%d whitelisted=%d unresolved=%d",
		len(r.Candidates), r.Killed, r.Count(ActionWhitelisted), r.Count(ActionUnresolved))
}

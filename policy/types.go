// Package policy evaluates timeline access policies such as inline-read-write.
package policy

type Conclusion int

const (
	Unset Conclusion = iota
	OK
	NG
	Allow
	Deny
)

func ParseConclusion(s string) Conclusion {
	switch s {
	case "allow":
		return Allow
	case "deny":
		return Deny
	case "ok":
		return OK
	case "ng":
		return NG
	default:
		return Unset
	}
}

// Or merges two conclusions. Contradicting conclusions of equal strength cancel out to Unset.
func (c Conclusion) Or(other Conclusion) Conclusion {
	switch {
	case c == Unset:
		return other
	case other == Unset:
		return c
	case c == Deny && other == Allow, c == Allow && other == Deny:
		return Unset
	case c == Deny || other == Deny:
		return Deny
	case c == Allow || other == Allow:
		return Allow
	case c == OK && other == NG, c == NG && other == OK:
		return Unset
	case c == OK || other == OK:
		return OK
	default:
		return NG
	}
}

// RequestContext is what a policy expression can Load from, addressed by json key.
type RequestContext struct {
	Requester string         `json:"requester"`
	Params    map[string]any `json:"params"`
}

type Document struct {
	Name     string            `json:"name"`
	Versions map[string]Policy `json:"versions"`
}

type Policy struct {
	Statements map[string][]Statement `json:"statements"`
	Defaults   map[string]bool        `json:"defaults"`
}

type Statement struct {
	Emit      string `json:"emit"`
	Condition Expr   `json:"condition"`
}

type Expr struct {
	Operator string `json:"op"`
	Args     []Expr `json:"args"`
	Const    any    `json:"const,omitempty"`
}

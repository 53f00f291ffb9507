package policy

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/totegamma/concrnt-loadtest/schemas"
)

const (
	ActionDistribute  = "timeline.distribute"
	ActionMessageRead = "timeline.message.read"
)

func load(key string) Expr {
	return Expr{Operator: "Load", Args: []Expr{{Const: key}}}
}

// InlineReadWrite grants writes and reads from the timeline's own params.
var InlineReadWrite = Document{
	Name: "inline-read-write",
	Versions: map[string]Policy{
		version: {
			Statements: map[string][]Statement{
				ActionDistribute: {
					{Emit: "allow", Condition: Expr{Operator: "Eq", Args: []Expr{load("params.isWritePublic"), {Const: true}}}},
					{Emit: "allow", Condition: Expr{Operator: "Contains", Args: []Expr{load("params.writer"), load("requester")}}},
				},
				ActionMessageRead: {
					{Emit: "allow", Condition: Expr{Operator: "Eq", Args: []Expr{load("params.isReadPublic"), {Const: true}}}},
					{Emit: "allow", Condition: Expr{Operator: "Contains", Args: []Expr{load("params.reader"), load("requester")}}},
				},
			},
			Defaults: map[string]bool{
				ActionDistribute:  false,
				ActionMessageRead: false,
			},
		},
	},
}

var builtin = map[string]Document{
	schemas.InlineReadWrite: InlineReadWrite,
}

// Lookup returns a known policy document by its url.
func Lookup(url string) (Document, bool) {
	doc, ok := builtin[url]
	return doc, ok
}

// ParseParams decodes a timeline's policyParams text. Empty text yields empty params.
func ParseParams(text string) (map[string]any, error) {
	params := map[string]any{}
	if text == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(text), &params); err != nil {
		return nil, errors.Wrap(err, "invalid policy params")
	}
	return params, nil
}

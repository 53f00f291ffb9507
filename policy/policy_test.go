package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/concrnt-loadtest/schemas"
)

func TestEvalLoad(t *testing.T) {
	rctx := RequestContext{
		Params: map[string]any{
			"user": "alice",
			"role": "admin",
		},
	}

	result, err := Eval(rctx, Expr{
		Operator: "Eq",
		Args:     []Expr{load("params.role"), {Const: "admin"}},
	})
	require.NoError(t, err)
	assert.Equal(t, true, result)

	_, err = Eval(rctx, load("params.missing"))
	assert.Error(t, err)

	_, err = Eval(rctx, Expr{Operator: "Xor"})
	assert.Error(t, err)
}

func TestConclusionOr(t *testing.T) {
	assert.Equal(t, Allow, Unset.Or(Allow))
	assert.Equal(t, Unset, Allow.Or(Deny))
	assert.Equal(t, Deny, Deny.Or(OK))
	assert.Equal(t, Allow, NG.Or(Allow))
	assert.Equal(t, Unset, OK.Or(NG))
	assert.Equal(t, NG, NG.Or(NG))
}

func TestInlineReadWrite(t *testing.T) {
	doc, ok := Lookup(schemas.InlineReadWrite)
	require.True(t, ok)

	params, err := ParseParams(`{"isWritePublic":false,"isReadPublic":true,"writer":["con1owner"],"reader":[]}`)
	require.NoError(t, err)

	allowed, err := Allowed(doc, RequestContext{Requester: "con1owner", Params: params}, ActionDistribute)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = Allowed(doc, RequestContext{Requester: "con1other", Params: params}, ActionDistribute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = Allowed(doc, RequestContext{Requester: "con1other", Params: params}, ActionMessageRead)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestInlineReadWriteWithoutParams(t *testing.T) {
	params, err := ParseParams("")
	require.NoError(t, err)

	allowed, err := Allowed(InlineReadWrite, RequestContext{Requester: "con1owner", Params: params}, ActionDistribute)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = ParseParams("{")
	assert.Error(t, err)
}

func TestUnsupportedVersion(t *testing.T) {
	_, err := Allowed(Document{Name: "future"}, RequestContext{}, ActionDistribute)
	assert.Error(t, err)
}

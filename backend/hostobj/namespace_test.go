package hostobj

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/cubism-runtime/errors"
)

type testNode struct {
	Count int
	Inner map[string]any
}

func (n *testNode) Ping() string { return "pong" }

func TestMemberMapLookup(t *testing.T) {
	root := map[string]any{
		"a": map[string]any{"b": 42},
	}
	v, err := member(root, "a", "b")
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestMemberMissingKey(t *testing.T) {
	_, err := member(map[string]any{}, "a", "b")

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Equal(t, []string{"a"}, serr.Path)
}

func TestMemberStructTraversal(t *testing.T) {
	root := &testNode{Count: 3, Inner: map[string]any{"x": "y"}}

	v, err := member(root, "Count")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	v, err = member(root, "Inner", "x")
	require.NoError(t, err)
	require.Equal(t, "y", v)

	ping, err := resolve[func() string](root, "Ping")
	require.NoError(t, err)
	require.Equal(t, "pong", ping())
}

func TestMemberNilNode(t *testing.T) {
	root := map[string]any{"a": nil}
	_, err := member(root, "a", "b")
	require.ErrorIs(t, err, errors.HostContract(nil, ""))
}

func TestMemberNilLeaf(t *testing.T) {
	root := map[string]any{"fn": nil}
	_, err := member(root, "fn")

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Equal(t, []string{"fn"}, serr.Path)
	require.Contains(t, serr.Detail, "nil")

	_, err = resolve[func()](root, "fn")
	require.ErrorIs(t, err, errors.HostContract(nil, ""))
}

func TestResolveWrongType(t *testing.T) {
	root := map[string]any{"fn": "not a func"}
	_, err := resolve[func()](root, "fn")

	var serr *errors.Error
	require.ErrorAs(t, err, &serr)
	require.Equal(t, errors.KindHostContract, serr.Kind)
	require.Contains(t, serr.Detail, "string")
}

func TestMustResolvePanics(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, stderrors.Is(err, errors.HostContract(nil, "")))
	}()
	mustResolve[func()](map[string]any{}, "missing")
}

// Package app_test provides black-box tests for the domain app package.
// It tests dependency graph construction and ordering.
package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodflow/daemon/internal/domain/app"
)

func specs(names ...string) []app.Spec {
	out := make([]app.Spec, len(names))
	for i, n := range names {
		out[i] = app.Spec{Name: n}
	}
	return out
}

func withDeps(s []app.Spec, name string, deps ...string) []app.Spec {
	for i := range s {
		if s[i].Name == name {
			s[i].DependsOn = deps
		}
	}
	return s
}

// indexOf finds i's position in order.
func indexOf(order []int, i int) int {
	for pos, v := range order {
		if v == i {
			return pos
		}
	}
	return -1
}

// TestNewGraph_DuplicateName tests that a duplicate app name is rejected.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestNewGraph_DuplicateName(t *testing.T) {
	_, err := app.NewGraph(specs("a", "a"))
	assert.Error(t, err, "duplicate app names must be rejected")
}

// TestNewGraph_UnknownDependency tests that depending on an undeclared
// app name is rejected.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestNewGraph_UnknownDependency(t *testing.T) {
	s := withDeps(specs("a", "b"), "a", "missing")
	_, err := app.NewGraph(s)
	assert.Error(t, err, "dependency on an unknown app must be rejected")
}

// TestNewGraph_Cycle tests that a dependency cycle is detected.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestNewGraph_Cycle(t *testing.T) {
	s := specs("a", "b", "c")
	s = withDeps(s, "a", "b")
	s = withDeps(s, "b", "c")
	s = withDeps(s, "c", "a")
	_, err := app.NewGraph(s)
	assert.Error(t, err, "a cyclic dependency chain must be rejected")
}

// TestGraph_StartOrder tests that every dependency precedes its
// dependents in StartOrder.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestGraph_StartOrder(t *testing.T) {
	s := specs("db", "cache", "api", "web")
	s = withDeps(s, "api", "db", "cache")
	s = withDeps(s, "web", "api")

	g, err := app.NewGraph(s)
	require.NoError(t, err)

	order := g.StartOrder()
	require.Len(t, order, 4)

	db := g.Index("db")
	cache := g.Index("cache")
	api := g.Index("api")
	web := g.Index("web")

	assert.Less(t, indexOf(order, db), indexOf(order, api), "db must start before api")
	assert.Less(t, indexOf(order, cache), indexOf(order, api), "cache must start before api")
	assert.Less(t, indexOf(order, api), indexOf(order, web), "api must start before web")
}

// TestGraph_StopOrder tests that every dependent precedes its dependency
// in StopOrder — the reverse of StartOrder's constraint.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestGraph_StopOrder(t *testing.T) {
	s := specs("db", "api")
	s = withDeps(s, "api", "db")

	g, err := app.NewGraph(s)
	require.NoError(t, err)

	order := g.StopOrder()
	require.Len(t, order, 2)

	db := g.Index("db")
	api := g.Index("api")
	assert.Less(t, indexOf(order, api), indexOf(order, db), "api must stop before db")
}

// TestGraph_DependentsAndDependsOn tests the direct edge accessors.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestGraph_DependentsAndDependsOn(t *testing.T) {
	s := specs("db", "api")
	s = withDeps(s, "api", "db")

	g, err := app.NewGraph(s)
	require.NoError(t, err)

	db := g.Index("db")
	api := g.Index("api")

	assert.Equal(t, []int{db}, g.DependsOn(api))
	assert.Equal(t, []int{api}, g.Dependents(db))
	assert.Empty(t, g.DependsOn(db))
	assert.Empty(t, g.Dependents(api))
}

// TestGraph_IndexUnknown tests that Index returns -1 for an unknown name.
//
// Params:
//   - t: the testing context
//
// Returns:
//   - (none, test function)
func TestGraph_IndexUnknown(t *testing.T) {
	g, err := app.NewGraph(specs("a"))
	require.NoError(t, err)
	assert.Equal(t, -1, g.Index("nonexistent"))
}

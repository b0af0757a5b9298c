package graph

import (
	"testing"

	"depscope/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeImpact(t *testing.T) {
	// d -> c -> b -> a and e -> a, with a -> d closing a ring through a.
	g := newAdjacency(
		[2]string{"b", "a"},
		[2]string{"c", "b"},
		[2]string{"d", "c"},
		[2]string{"e", "a"},
		[2]string{"a", "d"},
	)
	g.order = append(g.order, "lonely")
	g.forward["lonely"] = []string{}

	report, err := AnalyzeImpact(g, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e"}, report.Direct)
	assert.Equal(t, []string{"c", "d"}, report.Transitive)
	assert.Equal(t, 4, report.Total())

	report, err = AnalyzeImpact(g, "lonely")
	require.NoError(t, err)
	assert.Empty(t, report.Direct)
	assert.Empty(t, report.Transitive)

	_, err = AnalyzeImpact(g, "missing")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestFindChain(t *testing.T) {
	// a -> b -> d, a -> c -> d, e isolated.
	g := newAdjacency(
		[2]string{"a", "c"},
		[2]string{"a", "b"},
		[2]string{"b", "d"},
		[2]string{"c", "d"},
	)
	g.order = append(g.order, "e")
	g.forward["e"] = []string{}

	tests := []struct {
		name   string
		from   string
		to     string
		expect []string
		code   errors.ErrorCode
	}{
		{"shortest path, sorted tie break", "a", "d", []string{"a", "b", "d"}, ""},
		{"self", "b", "b", []string{"b"}, ""},
		{"no path against edges", "d", "a", nil, errors.CodeNotFound},
		{"isolated", "a", "e", nil, errors.CodeNotFound},
		{"unknown node", "a", "zzz", nil, errors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := FindChain(g, tt.from, tt.to)
			if tt.code != "" {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, tt.code))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expect, chain)
		})
	}
}

package model

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rule  Rule
		value any
		fails bool
	}{
		{"required text", Required(), "x", false},
		{"required empty", Required(), "", true},
		{"required blank", Required(), "   ", true},
		{"required nil", Required(), nil, true},
		{"required empty slice", Required(), []string{}, true},
		{"required zero number", Required(), 0, false},

		{"email plain", Email(), "ann@example.com", false},
		{"email empty passes", Email(), "", false},
		{"email with display name", Email(), "Ann <ann@example.com>", true},
		{"email without domain dot", Email(), "ann@localhost", true},
		{"email without at", Email(), "ann.example.com", true},
		{"email double at", Email(), "ann@@example.com", true},

		{"min length exact", MinLength(3), "abc", false},
		{"min length short", MinLength(3), "ab", true},
		{"min length empty passes", MinLength(3), "", false},
		{"min length multibyte exact", MinLength(3), "żół", false},
		{"min length multibyte short", MinLength(3), "żó", true},

		{"max length exact", MaxLength(3), "abc", false},
		{"max length long", MaxLength(3), "abcd", true},
		{"max length multibyte exact", MaxLength(3), "żół", false},
		{"max length multibyte long", MaxLength(3), "żółw", true},
		{"max length empty", MaxLength(3), "", false},

		{"numeric decimal string", Numeric(), "12.5", false},
		{"numeric padded string", Numeric(), " 7 ", false},
		{"numeric exponent", Numeric(), "1e3", false},
		{"numeric trailing letter", Numeric(), "12a", true},
		{"numeric word", Numeric(), "abc", true},
		{"numeric int", Numeric(), 42, false},
		{"numeric float", Numeric(), 3.5, false},
		{"numeric bytes", Numeric(), []byte("12"), false},
		{"numeric nil", Numeric(), nil, false},
		{"numeric empty", Numeric(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &Record{data: map[string]any{"v": tt.value}}
			fail, err := tt.rule.Check(context.Background(), rec, "v")
			require.NoError(t, err)
			if tt.fails {
				require.NotNil(t, fail)
				require.Equal(t, "validation."+tt.rule.Kind, fail.Key)
			} else {
				require.Nil(t, fail)
			}
		})
	}
}

func TestRules_FailureData(t *testing.T) {
	t.Parallel()

	rec := &Record{data: map[string]any{"v": "toolong"}}

	fail, err := MinLength(10).Check(context.Background(), rec, "v")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"min": 10}, fail.Data)

	fail, err = MaxLength(3).Check(context.Background(), rec, "v")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"max": 3}, fail.Data)
}

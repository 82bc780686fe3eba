package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		wantArgs []string
	}{
		{"name and args", "move 5 10", "move", []string{"5", "10"}},
		{"name only", "help", "help", []string{}},
		{"surrounding whitespace", "  undo  ", "undo", []string{}},
		{"tabs", "sort\tbubble\t3,2,1", "sort", []string{"bubble", "3,2,1"}},
		{"repeated spaces", "append  hello   world", "append", []string{"hello", "world"}},
		{"no quoting", `say "hello world"`, "say", []string{`"hello`, `world"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.wantArgs, p.Args)
		})
	}
}

func TestParseBlank(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\n"} {
		_, err := Parse(line)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyInput))

		var perr *ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, line, perr.Input)
	}
}

func TestParsedString(t *testing.T) {
	p, err := Parse("move 5 10")
	require.NoError(t, err)
	assert.Equal(t, "move 5 10", p.String())
	assert.Equal(t, "exit", Parsed{Name: "exit"}.String())
}

func TestParseArgsAreCopied(t *testing.T) {
	p, err := Parse("a b c")
	require.NoError(t, err)
	p.Args[0] = "x"

	again, err := Parse("a b c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, again.Args)
}

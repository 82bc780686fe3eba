package command

import "strings"

// Parsed is a command line split into a name and positional arguments.
type Parsed struct {
	Name string
	Args []string
}

// Parse splits a raw input line into a command name and its arguments.
// The line is trimmed once and split on whitespace; the first token is the
// name. Quoting is not supported. A blank line is rejected with a
// *ParseError matching ErrEmptyInput.
func Parse(line string) (Parsed, error) {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Parsed{}, &ParseError{Input: line, Err: ErrEmptyInput}
	}

	args := make([]string, len(fields)-1)
	copy(args, fields[1:])

	return Parsed{Name: fields[0], Args: args}, nil
}

// String reassembles the command line.
func (p Parsed) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}
	return p.Name + " " + strings.Join(p.Args, " ")
}

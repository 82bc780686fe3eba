package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// String accepts any argument unchanged.
func String(raw string) (string, error) {
	return raw, nil
}

// Int parses a base-10 integer.
func Int(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", raw)
	}
	return n, nil
}

// Float parses a floating point number.
func Float(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return f, nil
}

// Bool parses true/false and the usual yes/no spellings.
func Bool(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", raw)
	}
	return b, nil
}

// Duration parses a Go duration string such as "1.5s".
func Duration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%q is not a duration", raw)
	}
	return d, nil
}

// IntList parses a comma separated list of integers.
func IntList(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := Int(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// OneOf returns a converter accepting only the listed options
// (case-insensitive). The canonical spelling is returned.
func OneOf(options ...string) func(string) (string, error) {
	return func(raw string) (string, error) {
		for _, opt := range options {
			if strings.EqualFold(opt, raw) {
				return opt, nil
			}
		}
		return "", fmt.Errorf("%q must be one of: %s", raw, strings.Join(options, ", "))
	}
}

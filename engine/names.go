package engine

import "strings"

// Name is a player's first and last name.
type Name struct {
	First string
	Last  string
}

func (n Name) Full() string {
	return n.First + " " + n.Last
}

// UniqueDisplayNames returns a display name for each entry of roster, in
// the same order.
func UniqueDisplayNames(roster []Name) []string {
	names := make([]string, len(roster))
	for i, n := range roster {
		names[i] = DisplayName(n, roster)
	}
	return names
}

// DisplayName labels n within roster. A unique first name is used alone.
// Otherwise the shortest surname prefix that no other player sharing the
// first name has is appended with a full stop, as in "Alex S.". When no
// prefix singles the player out the full name is used.
func DisplayName(n Name, roster []Name) string {
	var namesakes []Name
	for _, other := range roster {
		if other.First == n.First {
			namesakes = append(namesakes, other)
		}
	}
	if len(namesakes) <= 1 {
		return n.First
	}

	last := []rune(n.Last)
	for i := 1; i <= len(last); i++ {
		prefix := string(last[:i])
		matches := 0
		for _, other := range namesakes {
			if strings.HasPrefix(other.Last, prefix) {
				matches++
			}
		}
		if matches == 1 {
			return n.First + " " + prefix + "."
		}
	}
	return n.Full()
}

// Initials returns the first letter of every space or hyphen separated part
// of both names, so "Mary-Jane van Dyke" gives "MJvD".
func Initials(first, last string) string {
	return initials(first) + initials(last)
}

func initials(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '-' }) {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return b.String()
}

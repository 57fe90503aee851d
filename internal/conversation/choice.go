package conversation

import (
	"errors"
	"strings"
	"unicode"
)

var (
	errNotALetter       = errors.New("conversation: input is not a single letter")
	errChoiceOutOfRange = errors.New("conversation: letter is outside the menu range")
)

// parseChoice maps a free-text body to an index into a menu of the given size.
// The body must be a single letter (case-insensitive, surrounding whitespace
// ignored) whose ordinal position falls inside the menu.
func parseChoice(input string, size int) (int, error) {
	trimmed := strings.TrimSpace(input)
	runes := []rune(trimmed)
	if len(runes) != 1 || !unicode.IsLetter(runes[0]) {
		return 0, errNotALetter
	}
	idx := int(unicode.ToUpper(runes[0]) - 'A')
	if idx < 0 || idx >= size {
		return 0, errChoiceOutOfRange
	}
	return idx, nil
}

// choiceLabel returns the letter label for a menu index, the inverse of
// parseChoice. Menu rendering and parsing must agree on this mapping.
func choiceLabel(idx int) string {
	return string(rune('A' + idx))
}

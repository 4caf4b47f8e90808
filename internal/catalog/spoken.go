package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// numberWords covers the chapter and verse numbers people actually say out
// loud. Compounds like "twenty one" are handled by summing a tens word with
// a following units word.
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100,
}

// ParseSpokenReference converts a spoken citation into the form the Sefaria
// API accepts, e.g. "genesis chapter one verse one" becomes "Genesis 1:1"
// and "isaiah forty" becomes "Isaiah 40". The book name is resolved
// against the catalog so misheard names still match. Returns false when no
// book or chapter can be recognised.
func (c *Catalog) ParseSpokenReference(spoken string) (string, bool) {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(spoken)))
	if len(words) == 0 {
		return "", false
	}

	// The book name is everything before the first number or the word
	// "chapter".
	split := len(words)
	for i, w := range words {
		if w == "chapter" || isNumberWord(w) {
			split = i
			break
		}
	}
	if split == 0 {
		return "", false
	}

	bookQuery := strings.Join(words[:split], " ")
	entry, ok := c.ByName(bookQuery)
	if !ok {
		matches := c.Search(bookQuery, 1)
		if len(matches) == 0 {
			return "", false
		}
		entry = matches[0].Entry
	}

	chapter, rest, ok := takeNumber(skipWord(words[split:], "chapter"))
	if !ok {
		return "", false
	}

	verse, _, hasVerse := takeNumber(skipWord(rest, "verse"))
	if hasVerse {
		return fmt.Sprintf("%s %d:%d", entry.Name, chapter, verse), true
	}
	return fmt.Sprintf("%s %d", entry.Name, chapter), true
}

func skipWord(words []string, word string) []string {
	if len(words) > 0 && words[0] == word {
		return words[1:]
	}
	return words
}

func isNumberWord(w string) bool {
	if _, err := strconv.Atoi(w); err == nil {
		return true
	}
	_, ok := numberWords[w]
	return ok
}

// takeNumber consumes a leading number from words, spoken ("twenty three")
// or written ("23"), and returns it with the remaining words.
func takeNumber(words []string) (int, []string, bool) {
	if len(words) == 0 {
		return 0, words, false
	}
	if n, err := strconv.Atoi(words[0]); err == nil {
		return n, words[1:], true
	}

	n, ok := numberWords[words[0]]
	if !ok {
		return 0, words, false
	}
	rest := words[1:]
	// Tens word followed by a units word compounds ("twenty" + "three").
	if n >= 20 && n <= 90 && len(rest) > 0 {
		if u, ok := numberWords[rest[0]]; ok && u < 10 {
			return n + u, rest[1:], true
		}
	}
	return n, rest, true
}

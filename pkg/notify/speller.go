package notify

import (
	"strconv"

	"github.com/divan/num2words"
)

// Speller renders a count as words.
type Speller interface {
	Cardinal(n int) string
}

// Num2Words spells English cardinals.
type Num2Words struct{}

func (Num2Words) Cardinal(n int) string {
	return num2words.Convert(n)
}

// Digits renders counts as plain numbers, for locales with no speller.
type Digits struct{}

func (Digits) Cardinal(n int) string {
	return strconv.Itoa(n)
}

package puzzle

import "unicode/utf8"

// Clue is one entry of a clue list.
type Clue struct {
	Number    int       `json:"number"`
	Direction Direction `json:"direction"`
	Text      string    `json:"text"`
	Length    int       `json:"length"`
	Word      int       `json:"word"`
}

// Clues lists the clues running in d, in authoring order.
func (g *Grid) Clues(d Direction) []Clue {
	idx := g.WordsIn(d)
	out := make([]Clue, 0, len(idx))
	for _, wi := range idx {
		w := g.words[wi]
		out = append(out, Clue{
			Number:    w.Number,
			Direction: w.Direction,
			Text:      w.Clue,
			Length:    utf8.RuneCountInString(upper(w.Answer)),
			Word:      wi,
		})
	}
	return out
}

// Find returns the index of the word with the given clue number and direction.
func (g *Grid) Find(number int, d Direction) (int, bool) {
	for _, wi := range g.WordsIn(d) {
		if g.words[wi].Number == number {
			return wi, true
		}
	}
	return -1, false
}

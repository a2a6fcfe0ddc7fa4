package core

import "strconv"

// Summary is the aggregate shown above the card grid.
type Summary struct {
	Total float64
	Count int
}

// Summarize recomputes the aggregate from scratch on every call.
func Summarize(views []CardView) Summary {
	return Summary{Total: Total(views), Count: len(views)}
}

// CountLabel renders "1 card in wallet" or "N cards in wallet".
func (s Summary) CountLabel() string {
	if s.Count == 1 {
		return "1 card in wallet"
	}
	return strconv.Itoa(s.Count) + " cards in wallet"
}

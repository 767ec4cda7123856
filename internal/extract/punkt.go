package extract

import (
	"fmt"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// Punkt segments English text with the pre-trained Punkt model, which knows
// common abbreviations and initials.
type Punkt struct {
	tok *sentences.DefaultSentenceTokenizer
}

func NewPunkt() (*Punkt, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading punkt model: %w", err)
	}
	return &Punkt{tok: tok}, nil
}

func (p *Punkt) Segment(passage string) []string {
	found := p.tok.Tokenize(passage)
	out := make([]string, 0, len(found))
	for _, s := range found {
		out = append(out, s.Text)
	}
	return out
}

package parser

import (
	"github.com/chriserin/cukeplan/internal/idgen"
	"github.com/chriserin/cukeplan/internal/messages"
)

// Layer 2: pickles compiled from the syntax tree

// Compile turns every scenario of doc into a pickle. A pickle carries the
// feature tags followed by the scenario's own tags, each name once, and the
// background steps followed by the scenario steps. Ids are drawn from gen:
// the pickle's first, then one per step.
func Compile(doc *Document, uri string, gen idgen.Generator) []messages.Pickle {
	if doc == nil || doc.Feature == nil {
		return nil
	}
	f := doc.Feature

	var background []Step
	if f.Background != nil {
		background = f.Background.Steps
	}

	pickles := make([]messages.Pickle, 0, len(f.Scenarios))
	for _, sd := range f.Scenarios {
		p := messages.Pickle{
			ID:    gen.Next(),
			URI:   uri,
			Name:  sd.Scenario.Name,
			Steps: []messages.PickleStep{},
			Tags:  pickleTags(f.Header.Tags, sd.Tags),
		}
		for _, steps := range [][]Step{background, sd.Scenario.Steps} {
			for _, s := range steps {
				p.Steps = append(p.Steps, messages.PickleStep{
					ID:       gen.Next(),
					Text:     s.Text,
					Location: &messages.Location{Line: s.Line},
				})
			}
		}
		pickles = append(pickles, p)
	}
	return pickles
}

func pickleTags(groups ...[]Tag) []messages.PickleTag {
	seen := make(map[string]bool)
	tags := []messages.PickleTag{}
	for _, g := range groups {
		for _, t := range g {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			tags = append(tags, messages.PickleTag{Name: t.Name})
		}
	}
	return tags
}

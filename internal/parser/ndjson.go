package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/chriserin/cukeplan/internal/messages"
)

const maxEnvelopeSize = 16 << 20

// ReadPickles reads newline-delimited envelopes and returns the pickles among
// them in stream order. Envelopes of other kinds are skipped. A pickle id may
// appear only once.
func ReadPickles(r io.Reader) ([]messages.Pickle, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEnvelopeSize)

	var pickles []messages.Pickle
	seen := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var env messages.Envelope
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return nil, fmt.Errorf("decoding envelope on line %d: %w", line, err)
		}
		if env.Pickle == nil {
			continue
		}
		p := *env.Pickle
		if p.ID == "" {
			return nil, fmt.Errorf("pickle on line %d has no id", line)
		}
		if first, ok := seen[p.ID]; ok {
			return nil, fmt.Errorf("pickle on line %d repeats id %q from line %d", line, p.ID, first)
		}
		seen[p.ID] = line
		pickles = append(pickles, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading envelopes: %w", err)
	}
	return pickles, nil
}

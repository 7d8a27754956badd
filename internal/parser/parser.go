package parser

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`@[^@\s]+`)

var stepKeywords = []string{"Given ", "When ", "Then ", "And ", "But ", "* "}

// Parse parses a .feature file and returns a Document AST and any parse errors.
func Parse(filename string, content []byte) (*Document, []ParseError) {
	lines := strings.Split(string(content), "\n")
	var errors []ParseError

	doc := &Document{}
	feature := &Feature{}
	doc.Feature = feature

	i := 0

	// Skip leading blanks and comments
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}
		break
	}

	// Collect feature-level tags
	var featureTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "@") {
			featureTags = append(featureTags, parseTags(trimmed)...)
			i++
			continue
		}
		break
	}
	feature.Header.Tags = featureTags
	feature.Header.Name = filenameWithoutExt(filename)

	// Look for Feature: line
	if i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "Feature:") {
			feature.Header.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "Feature:"))
			i++

			// Scan description lines until keyword or tag
			var descLines []string
			for i < len(lines) {
				trimmed := strings.TrimSpace(lines[i])
				if isKeyword(trimmed) || isTagLine(trimmed) {
					break
				}
				descLines = append(descLines, lines[i])
				i++
			}
			if desc := strings.TrimSpace(strings.Join(descLines, "\n")); desc != "" {
				feature.Header.Description = desc
			}
		}
	}

	// Body loop
	var pendingTags []Tag
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		// Skip doc strings
		if isDocStringDelimiter(trimmed) {
			i = skipDocString(lines, i)
			continue
		}

		// Skip blank lines and comments in body
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			i++
			continue
		}

		// Tag line
		if isTagLine(trimmed) {
			pendingTags = append(pendingTags, parseTags(trimmed)...)
			i++
			continue
		}

		// Background:
		if strings.HasPrefix(trimmed, "Background:") {
			if len(pendingTags) > 0 {
				errors = append(errors, ParseError{Line: i + 1, Message: "tags are not allowed on Background"})
			}
			pendingTags = nil
			if feature.Background != nil {
				errors = append(errors, ParseError{Line: i + 1, Message: "only one Background is allowed"})
			}
			bg := &Background{Line: i + 1}
			i++
			bg.Steps, i = consumeSteps(lines, i)
			feature.Background = bg
			continue
		}

		// Scenario:
		if strings.HasPrefix(trimmed, "Scenario:") || strings.HasPrefix(trimmed, "Example:") {
			name := strings.TrimSpace(trimmed[strings.Index(trimmed, ":")+1:])
			sd := ScenarioDefinition{
				Tags:     pendingTags,
				Scenario: Scenario{Name: name},
				Line:     i + 1,
			}
			pendingTags = nil
			i++
			sd.Scenario.Steps, i = consumeSteps(lines, i)
			feature.Scenarios = append(feature.Scenarios, sd)
			continue
		}

		// Unsupported keywords
		if strings.HasPrefix(trimmed, "Scenario Outline:") || strings.HasPrefix(trimmed, "Scenario Template:") {
			errors = append(errors, ParseError{Line: i + 1, Message: "Scenario Outline is not supported"})
			pendingTags = nil
			i++
			_, i = consumeSteps(lines, i)
			continue
		}
		if strings.HasPrefix(trimmed, "Rule:") {
			errors = append(errors, ParseError{Line: i + 1, Message: "Rule is not supported"})
			pendingTags = nil
			i++
			_, i = consumeSteps(lines, i)
			continue
		}
		if strings.HasPrefix(trimmed, "Examples:") || strings.HasPrefix(trimmed, "Scenarios:") {
			errors = append(errors, ParseError{Line: i + 1, Message: "Examples is not supported"})
			pendingTags = nil
			i++
			_, i = consumeSteps(lines, i)
			continue
		}

		// A step outside any scenario
		if _, _, ok := parseStep(trimmed); ok {
			errors = append(errors, ParseError{Line: i + 1, Message: "step outside of a Scenario or Background"})
		}
		i++
	}

	return doc, errors
}

func parseTags(line string) []Tag {
	// a comment may follow the tags
	if idx := strings.Index(line, " #"); idx >= 0 {
		line = line[:idx]
	}
	matches := tagPattern.FindAllString(line, -1)
	var tags []Tag
	for _, m := range matches {
		tags = append(tags, Tag{Name: m})
	}
	return tags
}

// parseStep splits a trimmed line into keyword and text.
func parseStep(trimmed string) (keyword, text string, ok bool) {
	for _, kw := range stepKeywords {
		if strings.HasPrefix(trimmed, kw) {
			return strings.TrimSpace(kw), strings.TrimSpace(trimmed[len(kw):]), true
		}
	}
	return "", "", false
}

func isTagLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "@")
}

func isKeyword(trimmed string) bool {
	return strings.HasPrefix(trimmed, "Feature:") ||
		strings.HasPrefix(trimmed, "Background:") ||
		strings.HasPrefix(trimmed, "Scenario:") ||
		strings.HasPrefix(trimmed, "Example:") ||
		strings.HasPrefix(trimmed, "Scenario Outline:") ||
		strings.HasPrefix(trimmed, "Scenario Template:") ||
		strings.HasPrefix(trimmed, "Rule:") ||
		strings.HasPrefix(trimmed, "Examples:") ||
		strings.HasPrefix(trimmed, "Scenarios:")
}

func isDocStringDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, `"""`) || strings.HasPrefix(trimmed, "```")
}

// skipDocString advances past a doc string block. i points at the opening delimiter.
// Returns the index of the line after the closing delimiter.
func skipDocString(lines []string, i int) int {
	opener := strings.TrimSpace(lines[i])
	delimiter := `"""`
	if strings.HasPrefix(opener, "```") {
		delimiter = "```"
	}
	i++ // move past opening delimiter
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == delimiter {
			return i + 1 // past the closing delimiter
		}
		i++
	}
	return i // EOF without closing delimiter
}

// consumeSteps collects step lines until the next keyword, tag line, or EOF.
// Doc strings, data tables and description text are skipped.
func consumeSteps(lines []string, i int) ([]Step, int) {
	var steps []Step
	for i < len(lines) {
		t := strings.TrimSpace(lines[i])
		if isDocStringDelimiter(t) {
			i = skipDocString(lines, i)
			continue
		}
		if isKeyword(t) || isTagLine(t) {
			break
		}
		if keyword, text, ok := parseStep(t); ok {
			steps = append(steps, Step{Keyword: keyword, Text: text, Line: i + 1})
		}
		i++
	}
	return steps, i
}

func filenameWithoutExt(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name
}

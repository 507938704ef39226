package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseIssue describes one record that could not be turned into an entity.
type parseIssue struct {
	Name   string
	Reason string
}

func (p parseIssue) Error() string { return p.Name + ": " + p.Reason }

// splitJSON returns the individual records of a file that holds either one
// JSON object or an array of objects.
func splitJSON(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
		return raws, nil
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}

func recordName(name string, i, n int) string {
	if n == 1 {
		return name
	}
	return fmt.Sprintf("%s[%d]", name, i)
}

func parseMedications(rec Record) ([]*Medication, []parseIssue) {
	raws, err := splitJSON(rec.Data)
	if err != nil {
		return nil, []parseIssue{{Name: rec.Name, Reason: err.Error()}}
	}
	var (
		out    []*Medication
		issues []parseIssue
	)
	for i, raw := range raws {
		name := recordName(rec.Name, i, len(raws))
		var m Medication
		if err := json.Unmarshal(raw, &m); err != nil {
			issues = append(issues, parseIssue{Name: name, Reason: err.Error()})
			continue
		}
		if err := m.Validate(); err != nil {
			issues = append(issues, parseIssue{Name: name, Reason: err.Error()})
			continue
		}
		out = append(out, &m)
	}
	return out, issues
}

func parseCriteria(rec Record) ([]*DiagnosticCriteria, []parseIssue) {
	raws, err := splitJSON(rec.Data)
	if err != nil {
		return nil, []parseIssue{{Name: rec.Name, Reason: err.Error()}}
	}
	var (
		out    []*DiagnosticCriteria
		issues []parseIssue
	)
	for i, raw := range raws {
		name := recordName(rec.Name, i, len(raws))
		var d DiagnosticCriteria
		if err := json.Unmarshal(raw, &d); err != nil {
			issues = append(issues, parseIssue{Name: name, Reason: err.Error()})
			continue
		}
		if err := d.Validate(); err != nil {
			issues = append(issues, parseIssue{Name: name, Reason: err.Error()})
			continue
		}
		out = append(out, &d)
	}
	return out, issues
}

type guidelineHeader struct {
	ID           string      `yaml:"id"`
	Title        string      `yaml:"title"`
	Organization string      `yaml:"organization"`
	Year         int         `yaml:"year"`
	Version      string      `yaml:"version"`
	Conditions   []string    `yaml:"conditions"`
	Citation     string      `yaml:"citation"`
	URL          string      `yaml:"url"`
	UpdatedAt    string      `yaml:"updatedAt"`
	Algorithms   []Algorithm `yaml:"algorithms"`
}

var (
	recommendationLine = regexp.MustCompile(`^\s*[-*]\s+\[([ABCDI])\]\s+(.+)$`)
	trailingEvidence   = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)\s*$`)
)

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the Markdown body.
func splitFrontMatter(data []byte) (header, body string, err error) {
	text := strings.ReplaceAll(string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return "", "", fmt.Errorf("missing front matter")
	}
	rest := text[len("---\n"):]
	if strings.HasPrefix(rest, "---") {
		rest = "\n" + rest
	}
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated front matter")
	}
	header = rest[:end]
	body = rest[end+len("\n---"):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return header, body, nil
}

func parseGuideline(rec Record) (*Guideline, error) {
	header, body, err := splitFrontMatter(rec.Data)
	if err != nil {
		return nil, err
	}
	var h guidelineHeader
	if err := yaml.Unmarshal([]byte(header), &h); err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}

	g := &Guideline{
		ID:           h.ID,
		Title:        h.Title,
		Organization: h.Organization,
		Year:         h.Year,
		Version:      h.Version,
		Conditions:   h.Conditions,
		Sections:     parseSections(body),
		Algorithms:   h.Algorithms,
		Citation:     h.Citation,
		URL:          h.URL,
		UpdatedAt:    h.UpdatedAt,
	}
	if g.ID == "" {
		g.ID = strings.TrimSuffix(rec.Name, path.Ext(rec.Name))
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// parseSections splits a Markdown body on "## " headings. Text before the
// first heading becomes an "Overview" section; "# " title lines are dropped.
func parseSections(body string) []Section {
	var (
		sections []Section
		cur      *Section
		lines    []string
	)
	flush := func() {
		if cur == nil {
			text := strings.TrimSpace(strings.Join(lines, "\n"))
			if text != "" {
				sections = append(sections, Section{Heading: "Overview", Body: text})
			}
		} else {
			cur.Body = strings.TrimSpace(strings.Join(lines, "\n"))
			sections = append(sections, *cur)
		}
		lines = nil
	}

	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			cur = &Section{Heading: strings.TrimSpace(strings.TrimPrefix(line, "## "))}
		case strings.HasPrefix(line, "# "):
		case cur != nil && recommendationLine.MatchString(line):
			m := recommendationLine.FindStringSubmatch(line)
			r := Recommendation{Grade: Grade(m[1]), Text: strings.TrimSpace(m[2])}
			if ev := trailingEvidence.FindStringSubmatch(r.Text); ev != nil {
				r.Text, r.Evidence = strings.TrimSpace(ev[1]), strings.TrimSpace(ev[2])
			}
			cur.Recommendations = append(cur.Recommendations, r)
		default:
			lines = append(lines, line)
		}
	}
	flush()
	return sections
}

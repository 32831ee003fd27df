package scout

import (
	"strings"
)

// Parsed is a scouting report split into its sections.
type Parsed struct {
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Overview   string   `json:"overview"`
	Raw        string   `json:"rawText"`
}

const (
	strengthsHeader  = "STRENGTHS:"
	weaknessesHeader = "WEAKNESSES:"
	overviewHeader   = "OVERVIEW:"
)

// ParseResponse splits text into its STRENGTHS, WEAKNESSES and OVERVIEW
// sections. Headers match case-insensitively; bullets may start with •, - or *.
// Missing sections are left empty.
func ParseResponse(text string) Parsed {
	upper := asciiUpper(text)
	p := Parsed{Raw: text}

	if body, ok := section(text, upper, strengthsHeader, weaknessesHeader); ok {
		p.Strengths = bullets(body)
	}
	if body, ok := section(text, upper, weaknessesHeader, overviewHeader); ok {
		p.Weaknesses = bullets(body)
	}
	if body, ok := section(text, upper, overviewHeader, ""); ok {
		p.Overview = strings.TrimSpace(body)
	}
	return p
}

// section returns the text between header and the next occurrence of until
// (or the end of text). upper is text with ASCII letters upper-cased, so byte
// offsets are shared.
func section(text, upper, header, until string) (string, bool) {
	start := strings.Index(upper, header)
	if start < 0 {
		return "", false
	}
	start += len(header)
	end := len(text)
	if until != "" {
		if i := strings.Index(upper[start:], until); i >= 0 {
			end = start + i
		}
	}
	return text[start:end], true
}

func bullets(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		var rest string
		switch {
		case strings.HasPrefix(line, "•"):
			rest = strings.TrimPrefix(line, "•")
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			rest = line[1:]
		default:
			continue
		}
		// A bullet marker must be followed by whitespace.
		if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		if item := strings.TrimSpace(rest); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

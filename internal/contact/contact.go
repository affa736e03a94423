// Package contact pulls best-effort contact details out of resume text.
package contact

import (
	"regexp"
	"strings"
)

var (
	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[\s-]?)?(\d{10}|\d{3}[\s-]\d{3}[\s-]\d{4})`)
	nameRe  = regexp.MustCompile(`^[A-Za-z\s.'-]+$`)
)

// nameScanLines bounds how far down the resume a name is searched for.
const nameScanLines = 5

// Info holds extracted fields; nil means not found.
type Info struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// Extract scans text for an email, a phone number and a name line.
func Extract(text string) Info {
	var info Info
	if m := emailRe.FindString(text); m != "" {
		info.Email = &m
	}
	if m := phoneRe.FindString(text); m != "" {
		info.Phone = &m
	}
	if name := findName(text); name != "" {
		info.Name = &name
	}
	return info
}

func findName(text string) string {
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		if seen >= nameScanLines {
			break
		}
		seen++
		words := strings.Fields(line)
		if len(words) >= 2 && len(words) <= 4 && nameRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// Package sanitize normalizes and validates free-text user input before it
// reaches the rate limiter, the generation provider or the contact deliverer.
//
// The server is the authority. The API client runs the same functions so the
// browser-facing behaviour matches, but never relies on them.
package sanitize

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Field names reported in validation errors.
const (
	FieldTopic   = "topic"
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"
)

// Length bounds, counted in runes.
const (
	TopicMaxLen   = 200
	NameMinLen    = 2
	NameMaxLen    = 100
	EmailMaxLen   = 255
	MessageMinLen = 10
	MessageMaxLen = 1000
)

var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<\s*script.*?>.*?<\s*/\s*script\s*>`),
	regexp.MustCompile(`(?is)<\s*iframe.*?>.*?<\s*/\s*iframe\s*>`),
	regexp.MustCompile(`(?is)<\s*embed.*?>`),
	regexp.MustCompile(`(?is)<\s*object.*?>`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)vbscript\s*:`),
	regexp.MustCompile(`(?i)data\s*:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?s)/\*.*?\*/`),
	regexp.MustCompile(`(?s)\$\{.*?\}`),
	regexp.MustCompile(`\\[\\nrt]`),
	regexp.MustCompile(`(?s)<[^>]*>`),
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	angleBrackets = strings.NewReplacer("<", "", ">", "")

	nameCharset = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-.'’]+$`)
	emailFormat = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Clean strips markup, script-like patterns, pseudo-protocols, comment and
// template syntax and control characters, then collapses whitespace. Patterns
// are removed repeatedly until the text is stable so that removing one
// fragment cannot reassemble another.
func Clean(raw string) string {
	s := raw
	for {
		prev := s
		// tab, newline and carriage return are collapsed as whitespace below
		s = stripControl(s, "\t\n\r")
		for _, p := range dangerousPatterns {
			s = p.ReplaceAllString(s, "")
		}
		s = angleBrackets.Replace(s)
		s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
		if s == prev {
			return s
		}
	}
}

// stripControl drops control (Cc, C0 and C1) and invisible format (Cf)
// characters, except the ones listed in keep.
func stripControl(s, keep string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(keep, r) {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// Topic validates and sanitizes a generation topic.
func Topic(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid(FieldTopic, RuleRequired, "Please enter a vibe or topic")
	}
	if utf8.RuneCountInString(trimmed) > TopicMaxLen {
		return "", invalid(FieldTopic, RuleTooLong, fmt.Sprintf("Topic must be %d characters or less", TopicMaxLen))
	}

	topic := Clean(trimmed)
	if topic == "" {
		return "", invalid(FieldTopic, RuleEmptyAfterSanitize, "Please provide a valid topic")
	}
	return topic, nil
}

// Name validates and normalizes a contact name.
func Name(raw string) (string, error) {
	name := angleBrackets.Replace(raw)
	name = stripControl(name, "")
	name = strings.TrimSpace(whitespaceRun.ReplaceAllString(name, " "))

	n := utf8.RuneCountInString(name)
	if n < NameMinLen {
		return "", invalid(FieldName, RuleTooShort, fmt.Sprintf("Name must be at least %d characters", NameMinLen))
	}
	if n > NameMaxLen {
		return "", invalid(FieldName, RuleTooLong, fmt.Sprintf("Name must be %d characters or less", NameMaxLen))
	}
	if !nameCharset.MatchString(name) {
		return "", invalid(FieldName, RuleCharset, "Name contains invalid characters")
	}
	return name, nil
}

// Email validates and normalizes an email address to lower case.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(angleBrackets.Replace(raw)))
	email = stripControl(email, "")

	if email == "" {
		return "", invalid(FieldEmail, RuleRequired, "Email is required")
	}
	if utf8.RuneCountInString(email) > EmailMaxLen {
		return "", invalid(FieldEmail, RuleTooLong, "Email is too long")
	}
	if !emailFormat.MatchString(email) || !validDomain(email) {
		return "", invalid(FieldEmail, RuleFormat, "Please provide a valid email address")
	}
	return email, nil
}

func validDomain(email string) bool {
	at := strings.IndexByte(email, '@')
	domain := email[at+1:]
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			return false
		}
	}
	return true
}

// Message validates a contact message and returns it HTML-escaped. Newlines
// and tabs are kept; the length bounds apply to the unescaped text.
func Message(raw string) (string, error) {
	msg := strings.TrimSpace(stripControl(raw, "\n\t"))

	n := utf8.RuneCountInString(msg)
	if n < MessageMinLen {
		return "", invalid(FieldMessage, RuleTooShort, fmt.Sprintf("Message must be at least %d characters", MessageMinLen))
	}
	if n > MessageMaxLen {
		return "", invalid(FieldMessage, RuleTooLong, fmt.Sprintf("Message must be %d characters or less", MessageMaxLen))
	}
	return html.EscapeString(msg), nil
}

// ContactFields holds a validated contact submission.
type ContactFields struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Contact validates all three contact fields in form order and returns the
// first failure.
func Contact(name, email, message string) (ContactFields, error) {
	var (
		out ContactFields
		err error
	)
	if out.Name, err = Name(name); err != nil {
		return ContactFields{}, err
	}
	if out.Email, err = Email(email); err != nil {
		return ContactFields{}, err
	}
	if out.Message, err = Message(message); err != nil {
		return ContactFields{}, err
	}
	return out, nil
}

package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// SecurityViolationError marks input that failed sanitization. Always a
// caller-correctable error; handlers map it to a 400 response.
type SecurityViolationError struct {
	Field  string
	Reason string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("security violation in %q: %s", e.Field, e.Reason)
}

const (
	trackingCodeMaxLen = 5000
	plainTextMaxLen    = 1000
)

// Dangerous markup is rejected outright, never stripped: partial
// stripping of these patterns is unreliable.
var richTextDenyPatterns = []string{
	`(?is)<script\b`,
	`(?i)javascript\s*:`,
	`(?is)\bon\w+\s*=`,
	`(?is)<iframe\b`,
	`(?is)<object\b`,
	`(?is)<embed\b`,
	`(?is)<form\b`,
}

// Vendor signatures a tracking snippet must carry when it opens a
// script tag.
var trackingAllowSignatures = []string{
	"gtag(",
	"googletagmanager.com",
	"google-analytics.com",
	"fbq(",
	"connect.facebook.net",
	"clarity",
	"hotjar",
	"ttq.",
	"_linkedin_partner_id",
}

// JS primitives that fail a tracking snippet even when an allowlisted
// vendor signature is present. The denylist wins over the allowlist.
var trackingDenyPrimitives = []string{
	"document.",
	"window.",
	"eval(",
	"settimeout(",
	"setinterval(",
	"xmlhttprequest",
	"fetch(",
}

// Routes SanitizeMap values to a policy by key name.
var (
	trackingKeys = map[string]struct{}{
		"tracking_code": {},
		"tracking":      {},
		"analytics":     {},
		"ga_code":       {},
		"gtm_code":      {},
		"pixel_code":    {},
		"head_scripts":  {},
		"body_scripts":  {},
	}
	richTextKeys = map[string]struct{}{
		"content":     {},
		"body":        {},
		"description": {},
		"html":        {},
		"rich_text":   {},
		"about":       {},
		"bio":         {},
	}
)

// Sanitizer applies the fixed content policies. Patterns are compiled
// once at construction and never mutated.
type Sanitizer struct {
	richTextDeny []*regexp.Regexp
	log          *zap.SugaredLogger
}

func NewSanitizer(log *zap.SugaredLogger) *Sanitizer {
	deny := make([]*regexp.Regexp, 0, len(richTextDenyPatterns))
	for _, p := range richTextDenyPatterns {
		deny = append(deny, regexp.MustCompile(p))
	}
	return &Sanitizer{richTextDeny: deny, log: log}
}

// SanitizeRichText rejects input matching any dangerous pattern and
// HTML-escapes everything else before returning it.
func (s *Sanitizer) SanitizeRichText(field, input string) (string, error) {
	for _, re := range s.richTextDeny {
		if re.MatchString(input) {
			s.log.Warnw("rich text rejected", "field", field, "pattern", re.String())
			return "", &SecurityViolationError{Field: field, Reason: "disallowed markup"}
		}
	}
	return html.EscapeString(input), nil
}

// SanitizePlainText enforces the length cap, then strips angle brackets
// and quotes and trims whitespace. No escaping beyond removal.
func (s *Sanitizer) SanitizePlainText(field, input string, maxLen int) (string, error) {
	if len(input) > maxLen {
		return "", &SecurityViolationError{Field: field, Reason: fmt.Sprintf("exceeds %d characters", maxLen)}
	}

	cleaned := strings.NewReplacer("<", "", ">", "", `"`, "", "'", "").Replace(input)
	return strings.TrimSpace(cleaned), nil
}

// SanitizeTrackingCode applies the narrower third-party snippet policy:
// a script opener requires a known vendor signature, and denylisted JS
// primitives fail the input regardless of the allowlist.
func (s *Sanitizer) SanitizeTrackingCode(field, input string) (string, error) {
	if len(input) > trackingCodeMaxLen {
		return "", &SecurityViolationError{Field: field, Reason: fmt.Sprintf("exceeds %d characters", trackingCodeMaxLen)}
	}

	lower := strings.ToLower(input)

	if strings.Contains(lower, "<script") {
		allowed := false
		for _, sig := range trackingAllowSignatures {
			if strings.Contains(lower, sig) {
				allowed = true
				break
			}
		}
		if !allowed {
			s.log.Warnw("tracking code rejected, no known vendor signature", "field", field)
			return "", &SecurityViolationError{Field: field, Reason: "unrecognized script source"}
		}
	}

	for _, prim := range trackingDenyPrimitives {
		if strings.Contains(lower, prim) {
			s.log.Warnw("tracking code rejected", "field", field, "primitive", prim)
			return "", &SecurityViolationError{Field: field, Reason: "disallowed script primitive"}
		}
	}

	return strings.TrimSpace(input), nil
}

// SanitizeMap walks the payload recursively and routes each string
// value through the policy chosen by its key. Non-string, non-mapping
// leaves pass through unchanged.
func (s *Sanitizer) SanitizeMap(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, value := range m {
		cleaned, err := s.sanitizeValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = cleaned
	}
	return out, nil
}

func (s *Sanitizer) sanitizeValue(key string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		return s.sanitizeString(key, v)
	case map[string]any:
		return s.SanitizeMap(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			cleaned, err := s.sanitizeValue(key, elem)
			if err != nil {
				return nil, err
			}
			out[i] = cleaned
		}
		return out, nil
	default:
		return value, nil
	}
}

func (s *Sanitizer) sanitizeString(key, value string) (string, error) {
	normalized := strings.ToLower(key)
	if _, ok := trackingKeys[normalized]; ok {
		return s.SanitizeTrackingCode(key, value)
	}
	if _, ok := richTextKeys[normalized]; ok {
		return s.SanitizeRichText(key, value)
	}
	return s.SanitizePlainText(key, value, plainTextMaxLen)
}

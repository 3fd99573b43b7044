package language

import (
	"fmt"
	"strings"
)

// WrapMode selects how the adapter decides on driver wrapping.
type WrapMode string

const (
	// WrapSniff wraps only code that does not read stdin itself.
	WrapSniff WrapMode = "sniff"
	// WrapNever sends code as written.
	WrapNever WrapMode = "never"
	// WrapAlways wraps every submission.
	WrapAlways WrapMode = "always"
)

// ParseWrapMode maps a config value to a WrapMode. Empty means WrapSniff.
func ParseWrapMode(raw string) (WrapMode, error) {
	switch WrapMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", WrapSniff:
		return WrapSniff, nil
	case WrapNever:
		return WrapNever, nil
	case WrapAlways:
		return WrapAlways, nil
	default:
		return "", fmt.Errorf("unknown wrap mode %q", raw)
	}
}

// Adapter turns user code into the program sent to the judge.
type Adapter struct {
	mode WrapMode
}

// NewAdapter creates an adapter. An empty mode means WrapSniff.
func NewAdapter(mode WrapMode) *Adapter {
	if mode == "" {
		mode = WrapSniff
	}
	return &Adapter{mode: mode}
}

// Prepared is the transformed program plus the decision that produced it.
type Prepared struct {
	Code     string
	Language Language
	Decision WrapDecision
}

// Prepare normalizes and optionally wraps code. It is computed once per request
// so every case of a submission is judged against identical source.
func (a *Adapter) Prepare(code string, lang Language) Prepared {
	normalized := Normalize(code, lang)

	decision := UseAsIs
	switch a.mode {
	case WrapAlways:
		if _, ok := registry[lang]; ok {
			decision = WrapWithDriver
		}
	case WrapSniff:
		decision = DecideWrap(normalized, lang)
	}

	out := normalized
	if decision == WrapWithDriver {
		out = registry[lang].driver(normalized)
	}
	return Prepared{Code: out, Language: lang, Decision: decision}
}

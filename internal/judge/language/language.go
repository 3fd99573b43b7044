// Package language prepares user source for the remote judge: entry point
// normalization, driver wrapping and the language id registry.
package language

import (
	"sort"
	"strings"

	appErr "codepractice/pkg/errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// Language is a supported source language key as sent by clients.
type Language string

const (
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	CPP        Language = "cpp"
)

type definition struct {
	remoteID int
	// stdinMarkers mean the program reads its own input. They match only where
	// no identifier character touches either end.
	stdinMarkers mapset.Set[string]
	driver       func(code string) string
}

var registry = map[Language]definition{
	JavaScript: {
		remoteID:     63,
		stdinMarkers: mapset.NewSet("readFileSync", "readline", "process.stdin"),
		driver:       javascriptDriver,
	},
	Python: {
		remoteID:     71,
		stdinMarkers: mapset.NewSet("input(", "sys.stdin"),
		driver:       pythonDriver,
	},
	Java: {
		remoteID:     62,
		stdinMarkers: mapset.NewSet("Scanner", "System.in", "BufferedReader"),
		driver:       javaDriver,
	},
	CPP: {
		remoteID:     54,
		stdinMarkers: mapset.NewSet("cin", "scanf", "getline", "fgets"),
		driver:       cppDriver,
	},
}

// Parse validates a client-supplied language key. Keys are case-insensitive.
func Parse(raw string) (Language, error) {
	key := Language(strings.ToLower(strings.TrimSpace(raw)))
	if key == "" {
		return "", appErr.ValidationError("language", "is required")
	}
	if _, ok := registry[key]; !ok {
		return "", appErr.Newf(appErr.LanguageNotSupported, "language %q is not supported", raw).
			WithDetail("supported", Supported())
	}
	return key, nil
}

// RemoteID returns the judge backend's language id, or 0 for unknown languages.
func (l Language) RemoteID() int {
	return registry[l].remoteID
}

// Supported lists the language keys in stable order.
func Supported() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

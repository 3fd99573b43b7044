package language

import (
	"regexp"
)

// EntryClass is the class name the judge backend runs for Java programs.
const EntryClass = "Main"

var javaPublicClass = regexp.MustCompile(`public\s+class\s+(\w+)`)

// Normalize renames the first public Java class to EntryClass. Every standalone
// occurrence of the old name is rewritten; identifiers that merely contain it are
// left alone. Other languages are returned unchanged.
func Normalize(code string, lang Language) string {
	if lang != Java {
		return code
	}
	m := javaPublicClass.FindStringSubmatch(code)
	if m == nil || m[1] == EntryClass {
		return code
	}
	name := regexp.MustCompile(`\b` + regexp.QuoteMeta(m[1]) + `\b`)
	return name.ReplaceAllLiteralString(code, EntryClass)
}

package language

import (
	"strings"
)

// WrapDecision says whether submitted code runs as-is or behind a driver.
type WrapDecision int

const (
	UseAsIs WrapDecision = iota
	WrapWithDriver
)

func (d WrapDecision) String() string {
	if d == WrapWithDriver {
		return "wrap_with_driver"
	}
	return "use_as_is"
}

// DecideWrap sniffs code for the language's stdin-reading idioms. Code that reads
// its own input is used as-is; anything else is treated as a bare solution(input)
// entry point that needs a driver. Unknown languages are never wrapped.
func DecideWrap(code string, lang Language) WrapDecision {
	def, ok := registry[lang]
	if !ok {
		return UseAsIs
	}
	found := false
	def.stdinMarkers.Each(func(marker string) bool {
		found = containsMarker(code, marker)
		return found
	})
	if found {
		return UseAsIs
	}
	return WrapWithDriver
}

// containsMarker reports whether marker occurs in code with no identifier
// character glued to either end, so "cin" does not match "principal".
func containsMarker(code, marker string) bool {
	for start := 0; ; {
		idx := strings.Index(code[start:], marker)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(marker)
		before := idx == 0 || !isIdentByte(code[idx-1])
		after := end == len(code) || !isIdentByte(marker[len(marker)-1]) || !isIdentByte(code[end])
		if before && after {
			return true
		}
		start = idx + 1
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// Wrap applies the language driver when DecideWrap asks for it.
func Wrap(code string, lang Language) string {
	if DecideWrap(code, lang) == UseAsIs {
		return code
	}
	return registry[lang].driver(code)
}

// Drivers read all of stdin, call the user's solution(input) and print the result.
// Each driver reads stdin through one of its own language's markers, so a wrapped
// program is never wrapped twice.

func javascriptDriver(code string) string {
	return strings.TrimRight(code, "\n") + `

const __input = require('fs').readFileSync(0, 'utf8').trim();
const __result = solution(__input);
console.log(typeof __result === 'string' ? __result : JSON.stringify(__result));
`
}

func pythonDriver(code string) string {
	return strings.TrimRight(code, "\n") + `


if __name__ == "__main__":
    import json as __json
    import sys
    __result = solution(sys.stdin.read().strip())
    print(__result if isinstance(__result, str) else __json.dumps(__result, separators=(",", ":")))
`
}

const javaMainMethod = `
    public static void main(String[] args) throws Exception {
        String input = new String(System.in.readAllBytes()).trim();
        System.out.println(solution(input));
    }
`

// javaDriver injects a main method into the entry class. Bare methods with no
// public class are enclosed in one.
func javaDriver(code string) string {
	loc := javaPublicClass.FindStringIndex(code)
	if loc == nil {
		return "public class " + EntryClass + " {\n" + strings.TrimRight(code, "\n") + "\n" + javaMainMethod + "}\n"
	}
	end := closingBrace(code, loc[1])
	if end < 0 {
		return code
	}
	return code[:end] + strings.TrimLeft(javaMainMethod, "\n") + code[end:]
}

// closingBrace returns the index of the brace that closes the first block
// opened at or after from, or -1. Braces inside comments and string or char
// literals are ignored.
func closingBrace(code string, from int) int {
	depth := 0
	for i := from; i < len(code); i++ {
		switch c := code[i]; c {
		case '/':
			if i+1 >= len(code) {
				continue
			}
			switch code[i+1] {
			case '/':
				nl := strings.IndexByte(code[i:], '\n')
				if nl < 0 {
					return -1
				}
				i += nl
			case '*':
				stop := strings.Index(code[i+2:], "*/")
				if stop < 0 {
					return -1
				}
				i += stop + 3
			}
		case '"', '\'':
			for i++; i < len(code) && code[i] != c; i++ {
				if code[i] == '\\' {
					i++
				}
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func cppDriver(code string) string {
	return "#include <iostream>\n#include <iterator>\n#include <string>\n" + strings.TrimRight(code, "\n") + `

int main() {
    std::string input((std::istreambuf_iterator<char>(std::cin)), std::istreambuf_iterator<char>());
    while (!input.empty() && (input.back() == '\n' || input.back() == '\r' || input.back() == ' ')) {
        input.pop_back();
    }
    std::cout << solution(input) << std::endl;
    return 0;
}
`
}

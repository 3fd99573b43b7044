package language

import (
	"strings"
	"testing"

	appErr "codepractice/pkg/errors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw      string
		want     Language
		wantCode appErr.ErrorCode
	}{
		{raw: "javascript", want: JavaScript},
		{raw: " Python ", want: Python},
		{raw: "JAVA", want: Java},
		{raw: "cpp", want: CPP},
		{raw: "", wantCode: appErr.ValidationFailed},
		{raw: "rust", wantCode: appErr.LanguageNotSupported},
	}
	for _, tc := range cases {
		got, err := Parse(tc.raw)
		if tc.wantCode != 0 {
			if appErr.GetCode(err) != tc.wantCode {
				t.Fatalf("Parse(%q) error code = %v, want %v", tc.raw, appErr.GetCode(err), tc.wantCode)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("Parse(%q) = %q, %v", tc.raw, got, err)
		}
	}
}

func TestRemoteIDs(t *testing.T) {
	want := map[Language]int{JavaScript: 63, Python: 71, Java: 62, CPP: 54}
	for lang, id := range want {
		if got := lang.RemoteID(); got != id {
			t.Fatalf("%s remote id = %d, want %d", lang, got, id)
		}
	}
	if Language("go").RemoteID() != 0 {
		t.Fatalf("unknown language should map to 0")
	}
}

func TestNormalizeJavaWordBoundary(t *testing.T) {
	code := `public class Foo {
    static FooBar helper = new FooBar();
    public static void main(String[] args) {
        Foo f = new Foo();
        System.out.println(Foo.class.getName());
    }
}
class FooBar {}
`
	got := Normalize(code, Java)
	if strings.Contains(got, "class Foo ") || strings.Contains(got, "new Foo()") || strings.Contains(got, "Foo.class") {
		t.Fatalf("standalone Foo not renamed:\n%s", got)
	}
	if strings.Count(got, "FooBar") != 3 {
		t.Fatalf("FooBar must be untouched:\n%s", got)
	}
	if !strings.Contains(got, "public class Main {") || !strings.Contains(got, "Main f = new Main();") {
		t.Fatalf("unexpected rename result:\n%s", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"public class Solution { public static void main(String[] a) { Solution s; } }",
		"public class Main {}",
		"class Helper {}",
	}
	for _, code := range inputs {
		once := Normalize(code, Java)
		if twice := Normalize(once, Java); twice != once {
			t.Fatalf("normalize not idempotent:\nonce:  %s\ntwice: %s", once, twice)
		}
	}
}

func TestNormalizeOtherLanguagesNoop(t *testing.T) {
	code := "public class Foo {}"
	for _, lang := range []Language{JavaScript, Python, CPP} {
		if got := Normalize(code, lang); got != code {
			t.Fatalf("%s: expected no-op, got %q", lang, got)
		}
	}
}

func TestDecideWrap(t *testing.T) {
	cases := []struct {
		name string
		code string
		lang Language
		want WrapDecision
	}{
		{"js reads stdin", "const s = require('fs').readFileSync(0, 'utf8');", JavaScript, UseAsIs},
		{"js readline", "const rl = require('readline');", JavaScript, UseAsIs},
		{"js bare", "function solution(input) { return input; }", JavaScript, WrapWithDriver},
		{"python input", "x = input()", Python, UseAsIs},
		{"python sys.stdin", "import sys\ndata = sys.stdin.read()", Python, UseAsIs},
		{"python bare", "def solution(s):\n    return s", Python, WrapWithDriver},
		{"java scanner", "Scanner sc = new Scanner(System.in);", Java, UseAsIs},
		{"java bare", "public class Solution { public static String solution(String s) { return s; } }", Java, WrapWithDriver},
		{"cpp cin", "int main(){ int x; std::cin >> x; }", CPP, UseAsIs},
		{"cpp bare", "std::string solution(std::string s) { return s; }", CPP, WrapWithDriver},
		{"cpp cin inside identifiers", "int principal = 1;\nint cinema_count = 2;\nstd::string solution(std::string vaccine) { return vaccine; }", CPP, WrapWithDriver},
		{"cpp getline", "std::string s; std::getline(std::cin, s);", CPP, UseAsIs},
		{"python input inside identifier", "def solution(s):\n    return read_input(s)", Python, WrapWithDriver},
		{"unknown", "anything", Language("go"), UseAsIs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecideWrap(tc.code, tc.lang); got != tc.want {
				t.Fatalf("DecideWrap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWrapIsStableOnWrappedCode(t *testing.T) {
	bare := map[Language]string{
		JavaScript: "function solution(input) { return input; }",
		Python:     "def solution(s):\n    return s",
		Java:       "public class Main {\n    public static String solution(String s) { return s; }\n}",
		CPP:        "std::string solution(std::string s) { return s; }",
	}
	for lang, code := range bare {
		wrapped := Wrap(code, lang)
		if wrapped == code {
			t.Fatalf("%s: expected driver to be applied", lang)
		}
		if !strings.Contains(wrapped, code[:10]) {
			t.Fatalf("%s: user code lost:\n%s", lang, wrapped)
		}
		if again := Wrap(wrapped, lang); again != wrapped {
			t.Fatalf("%s: wrapping twice changed the program", lang)
		}
	}
}

func TestJavaDriverInjectsMainIntoEntryClass(t *testing.T) {
	code := "public class Main {\n    public static String solution(String s) { return s; }\n}\n"
	got := Wrap(code, Java)
	if strings.Count(got, "class Main") != 1 {
		t.Fatalf("expected single Main class:\n%s", got)
	}
	mainIdx := strings.Index(got, "public static void main")
	closeIdx := strings.LastIndex(got, "}")
	if mainIdx < 0 || mainIdx > closeIdx {
		t.Fatalf("main method must be inside the class:\n%s", got)
	}

	bare := "static String solution(String s) { return s; }"
	got = Wrap(bare, Java)
	if !strings.HasPrefix(got, "public class Main {") {
		t.Fatalf("bare methods should be enclosed in Main:\n%s", got)
	}
}

func TestJavaDriverSkipsTrailingHelperClass(t *testing.T) {
	code := `public class Solution {
    // closing } in a comment
    static String brace = "}";
    static char open = '{';
    public static String solution(String s) { return Helper.echo(s); }
}

class Helper {
    static String echo(String s) { return s; }
}
`
	got := NewAdapter(WrapSniff).Prepare(code, Java).Code
	mainIdx := strings.Index(got, "public static void main")
	helperIdx := strings.Index(got, "class Helper")
	if mainIdx < 0 || helperIdx < 0 || mainIdx > helperIdx {
		t.Fatalf("main must be injected into Main, before Helper:\n%s", got)
	}
	entry := got[:helperIdx]
	if !strings.HasPrefix(entry, "public class Main {") || !strings.HasSuffix(strings.TrimSpace(entry), "}") {
		t.Fatalf("main must stay inside the entry class:\n%s", got)
	}
	if strings.Contains(got[helperIdx:], "void main") {
		t.Fatalf("Helper must not receive main:\n%s", got)
	}
}

func TestClosingBrace(t *testing.T) {
	cases := []struct {
		code string
		want int
	}{
		{"class A { }", 10},
		{"class A { void f() { } }", 23},
		{"class A { /* } */ }", 18},
		{"class A { String s = \"\\\"}\"; }", 28},
		{"class A {", -1},
	}
	for _, tc := range cases {
		if got := closingBrace(tc.code, 0); got != tc.want {
			t.Fatalf("closingBrace(%q) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestAdapterPrepare(t *testing.T) {
	javaCode := "public class Solution {\n    public static String solution(String s) { return Solution.echo(s); }\n    static String echo(String s) { return s; }\n}\n"

	sniff := NewAdapter(WrapSniff).Prepare(javaCode, Java)
	if sniff.Decision != WrapWithDriver {
		t.Fatalf("expected wrap decision, got %v", sniff.Decision)
	}
	if strings.Contains(sniff.Code, "Solution") {
		t.Fatalf("class should be renamed before wrapping:\n%s", sniff.Code)
	}
	if !strings.Contains(sniff.Code, "public static void main") {
		t.Fatalf("driver missing:\n%s", sniff.Code)
	}

	never := NewAdapter(WrapNever).Prepare(javaCode, Java)
	if never.Decision != UseAsIs || strings.Contains(never.Code, "void main") {
		t.Fatalf("never mode must not wrap: %+v", never)
	}

	stdinCode := "x = input()\nprint(x)"
	always := NewAdapter(WrapAlways).Prepare(stdinCode, Python)
	if always.Decision != WrapWithDriver {
		t.Fatalf("always mode must wrap")
	}
	if sniffed := NewAdapter("").Prepare(stdinCode, Python); sniffed.Code != stdinCode {
		t.Fatalf("sniff mode should leave stdin programs alone")
	}
}

func TestParseWrapMode(t *testing.T) {
	for raw, want := range map[string]WrapMode{"": WrapSniff, "SNIFF": WrapSniff, "never": WrapNever, "always": WrapAlways} {
		got, err := ParseWrapMode(raw)
		if err != nil || got != want {
			t.Fatalf("ParseWrapMode(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseWrapMode("sometimes"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

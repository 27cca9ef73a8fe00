// errors_test.go
package minilux

import (
	"strings"
	"testing"
)

func Test_WrapError_ParseSnippet(t *testing.T) {
	src := "$a = 1\n$b = \n$c = 3\n"
	_, err := ParseProgram(src)
	if err == nil {
		t.Fatal("want parse error")
	}
	wrapped := WrapErrorWithName(err, "prog.mi", src)
	msg := wrapped.Error()

	for _, want := range []string{
		"PARSE ERROR in prog.mi at 2:",
		"   1 | $a = 1",
		"   2 | $b = ",
		"   3 | $c = 3",
		"^",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("snippet missing %q:\n%s", want, msg)
		}
	}
}

func Test_WrapError_LexSnippet(t *testing.T) {
	src := "$a = \"open\n"
	_, err := ParseProgram(src)
	if err == nil {
		t.Fatal("want lex error")
	}
	msg := WrapErrorWithSource(err, src).Error()
	if !strings.Contains(msg, "LEXICAL ERROR at 1:") {
		t.Fatalf("header missing:\n%s", msg)
	}
	if !strings.Contains(msg, "not terminated") {
		t.Fatalf("message missing:\n%s", msg)
	}
}

func Test_WrapError_PassesOtherErrorsThrough(t *testing.T) {
	orig := &LexError{Line: 1, Col: 0, Msg: "x"}
	if WrapErrorWithSource(orig, "src") == error(orig) {
		t.Fatal("lex errors must be wrapped")
	}
	other := errFixture{}
	if WrapErrorWithSource(other, "src") != other {
		t.Fatal("non lex/parse errors must pass through unchanged")
	}
}

type errFixture struct{}

func (errFixture) Error() string { return "fixture" }

package lexer

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexPunctAndIdent(t *testing.T) {
	toks, errs := Lex("t.kry", `App { count: 10px }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	want := []token.Kind{token.IDENT, token.LBRACE, token.IDENT, token.COLON, token.NUMUNIT, token.RBRACE, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
	if toks[4].Unit != token.UnitPx {
		t.Fatalf("expected px unit, got %v", toks[4].Unit)
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks, errs := Lex("t.kry", `"a\nbA"`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.STRING || toks[0].Literal != "a\nbA" {
		t.Fatalf("got %q", toks[0].Literal)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, errs := Lex("t.kry", `"abc`)
	if len(errs) != 1 {
		t.Fatalf("expected one error, got %d", len(errs))
	}
}

func TestLexColorLiterals(t *testing.T) {
	for _, src := range []string{"#fff", "#ffff", "#ff00ff", "#ff00ff80"} {
		toks, errs := Lex("t.kry", src)
		if len(errs) != 0 {
			t.Fatalf("%s: unexpected errors: %v", src, errs)
		}
		if toks[0].Kind != token.COLOR {
			t.Fatalf("%s: expected COLOR, got %v", src, toks[0].Kind)
		}
	}
}

func TestLexDirectivesAndTemplate(t *testing.T) {
	toks, errs := Lex("t.kry", `@for item in items { text: "${item.name}" }`)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if toks[0].Kind != token.AT_FOR {
		t.Fatalf("expected AT_FOR, got %v", toks[0].Kind)
	}
}

func TestLexRecoversAfterIllegalChar(t *testing.T) {
	toks, errs := Lex("t.kry", "a: `\nb: 1")
	if len(errs) == 0 {
		t.Fatalf("expected a lexical error")
	}
	var hasB bool
	for _, tk := range toks {
		if tk.Kind == token.IDENT && tk.Literal == "b" {
			hasB = true
		}
	}
	if !hasB {
		t.Fatalf("expected scanning to recover and find token b on next line")
	}
}

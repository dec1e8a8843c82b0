package lexer

import "testing"

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, src string, want ...TokenKind) {
	t.Helper()
	toks, err := New("<test>", src).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	want = append(want, TokEOF)
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	assertKinds(t, "var x = func", TokVar, TokIdent, TokAssign, TokFunc)
}

func TestTokenizeLongestMatchOperatorsFirst(t *testing.T) {
	assertKinds(t, "a <=> b", TokIdent, TokCmp, TokIdent)
	assertKinds(t, "a <<< b", TokIdent, TokRol, TokIdent)
	assertKinds(t, "a << b", TokIdent, TokShl, TokIdent)
	assertKinds(t, "a < b", TokIdent, TokLt, TokIdent)
}

func TestTokenizeIntegerAndRealLiterals(t *testing.T) {
	toks, err := New("<test>", "42 3.14 1e3 2.5e-2").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		kind TokenKind
		text string
	}{
		{TokInt, "42"}, {TokReal, "3.14"}, {TokReal, "1e3"}, {TokReal, "2.5e-2"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Fatalf("token %d: got %v %q, want %v %q", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := New("<test>", `"a\nb\tc\"d"`).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	want := "a\nb\tc\"d"
	if toks[0].Text != want {
		t.Fatalf("got %q, want %q", toks[0].Text, want)
	}
}

func TestTokenizeSkipsLineAndBlockComments(t *testing.T) {
	src := "var x = 1; // a comment\n/* block\ncomment */ var y = 2;"
	toks, err := New("<test>", src).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	got := kinds(toks)
	want := []TokenKind{
		TokVar, TokIdent, TokAssign, TokInt, TokSemi,
		TokVar, TokIdent, TokAssign, TokInt, TokSemi, TokEOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := New("<test>", `"abc`).Tokenize()
	if err == nil {
		t.Fatal("expected an unterminated string literal error")
	}
}

func TestTokenizeReportsLineAndColumn(t *testing.T) {
	toks, err := New("t.as", "var\nx").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Loc.Line != 1 {
		t.Fatalf("got line %d, want 1", toks[0].Loc.Line)
	}
	if toks[1].Loc.Line != 2 {
		t.Fatalf("got line %d, want 2", toks[1].Loc.Line)
	}
}

func TestParseIntAndRealLiterals(t *testing.T) {
	n, err := ParseIntLiteral("123")
	if err != nil || n != 123 {
		t.Fatalf("got %d, %v", n, err)
	}
	r, err := ParseRealLiteral("1.5")
	if err != nil || r != 1.5 {
		t.Fatalf("got %f, %v", r, err)
	}
}

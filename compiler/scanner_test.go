package compiler

import (
	"testing"

	"loxvm/token"
)

func TestScannerTokenizesPunctuatorsAndOperators(t *testing.T) {
	s := newScanner(`( ) - + / * ; ! != = == < <= > >=`)
	want := []token.Type{
		token.LEFT_PAREN, token.RIGHT_PAREN, token.MINUS, token.PLUS,
		token.SLASH, token.STAR, token.SEMICOLON, token.BANG, token.BANG_EQUAL,
		token.EQUAL, token.EQUAL_EQUAL, token.LESS, token.LESS_EQUAL,
		token.GREATER, token.GREATER_EQUAL, token.EOF,
	}
	for i, typ := range want {
		tok := s.next()
		if tok.Type != typ {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, typ)
		}
	}
}

func TestScannerTracksLines(t *testing.T) {
	s := newScanner("1\n2\n3")
	for _, wantLine := range []int{1, 2, 3} {
		tok := s.next()
		if tok.Line != wantLine {
			t.Fatalf("got line %d, want %d", tok.Line, wantLine)
		}
	}
}

func TestScannerKeywordsVsIdentifiers(t *testing.T) {
	s := newScanner("and or nil true false var print return foo")
	wantTypes := []token.Type{
		token.AND, token.OR, token.NIL, token.TRUE, token.FALSE,
		token.VAR, token.PRINT, token.RETURN, token.IDENT,
	}
	for i, typ := range wantTypes {
		tok := s.next()
		if tok.Type != typ {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, typ)
		}
	}
}

func TestScannerSkipsLineComments(t *testing.T) {
	s := newScanner("1 // this is a comment\n2")
	first := s.next()
	if first.Lexeme != "1" {
		t.Fatalf("got %q, want %q", first.Lexeme, "1")
	}
	second := s.next()
	if second.Lexeme != "2" {
		t.Fatalf("got %q, want %q", second.Lexeme, "2")
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	s := newScanner(`"abc`)
	tok := s.next()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("got %s, want ILLEGAL", tok.Type)
	}
}

func TestScannerStringExcludesQuotes(t *testing.T) {
	s := newScanner(`"hello"`)
	tok := s.next()
	if tok.Type != token.STRING || tok.Lexeme != "hello" {
		t.Fatalf("got %s %q, want STRING %q", tok.Type, tok.Lexeme, "hello")
	}
}

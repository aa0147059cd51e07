package lexer

import (
	"testing"

	"pythowon/internal/token"
)

func TestScanToken(t *testing.T) {
	input := `let five = 5;
let pi = 3.14;
let big = 2e10;
# a line comment
#| a block
   comment |#
fwunction add() { return five + pi; }
if (five >= 5 and five != 4) { print "big"; } else { print "small"; }
while (true) { continue; break; }
for (let i = 0; i < 5; i = i + 1) {}
switch (five) { case 5: default: }
1 << 2 >> 3 % 4
not none nan inf in
a <= b
[1, 2].x
`

	tests := []struct {
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{token.LET, "let"},
		{token.IDENTIFIER, "five"},
		{token.EQ, "="},
		{token.NUM, "5"},
		{token.SEMI, ";"},
		{token.LET, "let"},
		{token.IDENTIFIER, "pi"},
		{token.EQ, "="},
		{token.NUM, "3.14"},
		{token.SEMI, ";"},
		{token.LET, "let"},
		{token.IDENTIFIER, "big"},
		{token.EQ, "="},
		{token.NUM, "2e10"},
		{token.SEMI, ";"},
		{token.DEF, "fwunction"},
		{token.IDENTIFIER, "add"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RETURN, "return"},
		{token.IDENTIFIER, "five"},
		{token.PLUS, "+"},
		{token.IDENTIFIER, "pi"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "five"},
		{token.GREATER_EQ, ">="},
		{token.NUM, "5"},
		{token.AND, "and"},
		{token.IDENTIFIER, "five"},
		{token.BANG_EQ, "!="},
		{token.NUM, "4"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STR, `"big"`},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.PRINT, "print"},
		{token.STR, `"small"`},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.WHILE, "while"},
		{token.LPAREN, "("},
		{token.TRUE, "true"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.CONTINUE, "continue"},
		{token.SEMI, ";"},
		{token.BREAK, "break"},
		{token.SEMI, ";"},
		{token.RBRACE, "}"},
		{token.FOR, "for"},
		{token.LPAREN, "("},
		{token.LET, "let"},
		{token.IDENTIFIER, "i"},
		{token.EQ, "="},
		{token.NUM, "0"},
		{token.SEMI, ";"},
		{token.IDENTIFIER, "i"},
		{token.LESS, "<"},
		{token.NUM, "5"},
		{token.SEMI, ";"},
		{token.IDENTIFIER, "i"},
		{token.EQ, "="},
		{token.IDENTIFIER, "i"},
		{token.PLUS, "+"},
		{token.NUM, "1"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.RBRACE, "}"},
		{token.SWITCH, "switch"},
		{token.LPAREN, "("},
		{token.IDENTIFIER, "five"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.CASE, "case"},
		{token.NUM, "5"},
		{token.COLON, ":"},
		{token.DEFAULT, "default"},
		{token.COLON, ":"},
		{token.RBRACE, "}"},
		{token.NUM, "1"},
		{token.LSHIFT, "<<"},
		{token.NUM, "2"},
		{token.RSHIFT, ">>"},
		{token.NUM, "3"},
		{token.PERCENT, "%"},
		{token.NUM, "4"},
		{token.NOT, "not"},
		{token.NONE, "none"},
		{token.NAN, "nan"},
		{token.INF, "inf"},
		{token.IN, "in"},
		{token.IDENTIFIER, "a"},
		{token.LESS_EQ, "<="},
		{token.IDENTIFIER, "b"},
		{token.LBRACK, "["},
		{token.NUM, "1"},
		{token.COMMA, ","},
		{token.NUM, "2"},
		{token.RBRACK, "]"},
		{token.DOT, "."},
		{token.IDENTIFIER, "x"},
		{token.EOF, ""},
	}

	l := New(input)

	for i, tt := range tests {
		tok := l.ScanToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - lexeme wrong. expected=%q, got=%q",
				i, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestKeywordPrefixesAreIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected token.TokenType
	}{
		{"fwunctional", token.IDENTIFIER},
		{"classy", token.IDENTIFIER},
		{"info", token.IDENTIFIER},
		{"i", token.IDENTIFIER},
		{"no", token.IDENTIFIER},
		{"nones", token.IDENTIFIER},
		{"lets", token.IDENTIFIER},
		{"printer", token.IDENTIFIER},
		{"fwunction", token.DEF},
		{"extends", token.EXTENDS},
		{"super", token.SUPER},
		{"this", token.THIS},
		{"class", token.CLASS},
	}

	for _, tt := range tests {
		tok := New(tt.input).ScanToken()
		if tok.Type != tt.expected {
			t.Errorf("%q - expected %q, got %q", tt.input, tt.expected, tok.Type)
		}
	}
}

func TestLineCounting(t *testing.T) {
	input := "1\n2\n\"a\nb\"\n3"

	l := New(input)

	tok := l.ScanToken()
	if tok.Line != 1 {
		t.Errorf("expected line 1, got %d", tok.Line)
	}
	tok = l.ScanToken()
	if tok.Line != 2 {
		t.Errorf("expected line 2, got %d", tok.Line)
	}
	tok = l.ScanToken()
	if tok.Type != token.STR || tok.Line != 4 {
		t.Errorf("expected STR ending on line 4, got %q on line %d", tok.Type, tok.Line)
	}
	tok = l.ScanToken()
	if tok.Line != 5 {
		t.Errorf("expected line 5, got %d", tok.Line)
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input          string
		expectedType   token.TokenType
		expectedLexeme string
	}{
		{`"foo"`, token.STR, `"foo"`},
		{`""`, token.STR, `""`},
		{`"tab\there"`, token.STR, `"tab\there"`},
		{`"quote\""`, token.STR, `"quote\""`},
		{`"all\n\r\t\v\f\\\0\a\'"`, token.STR, `"all\n\r\t\v\f\\\0\a\'"`},
		{"\"\"\"multi\nline\"\"\"", token.STR, "\"\"\"multi\nline\"\"\""},
		{`"bad\z"`, token.ERROR, "Invalid escape character in string."},
		{`"unterminated`, token.ERROR, "Unterminated single-line string."},
		{"\"\"\"unterminated\n", token.ERROR, "Unterminated multi-line string."},
	}

	for _, tt := range tests {
		tok := New(tt.input).ScanToken()
		if tok.Type != tt.expectedType {
			t.Errorf("%q - expected %q, got %q (%q)", tt.input, tt.expectedType, tok.Type, tok.Lexeme)
			continue
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Errorf("%q - expected lexeme %q, got %q", tt.input, tt.expectedLexeme, tok.Lexeme)
		}
	}
}

func TestComments(t *testing.T) {
	l := New("1 # trailing comment\n2 #| block |# 3")
	for _, want := range []string{"1", "2", "3"} {
		tok := l.ScanToken()
		if tok.Type != token.NUM || tok.Lexeme != want {
			t.Fatalf("expected NUM %q, got %q %q", want, tok.Type, tok.Lexeme)
		}
	}

	tok := New("#| never closed").ScanToken()
	if tok.Type != token.ERROR || tok.Lexeme != "Unterminated comment." {
		t.Errorf("expected unterminated comment error, got %q %q", tok.Type, tok.Lexeme)
	}
}

func TestEOFForever(t *testing.T) {
	l := New("1")
	l.ScanToken()
	for i := 0; i < 3; i++ {
		tok := l.ScanToken()
		if tok.Type != token.EOF {
			t.Fatalf("call %d after end: expected EOF, got %q", i, tok.Type)
		}
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	tok := New("@").ScanToken()
	if tok.Type != token.ERROR || tok.Lexeme != "Unexpected character." {
		t.Errorf("expected unexpected character error, got %q %q", tok.Type, tok.Lexeme)
	}
}

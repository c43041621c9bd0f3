package parser

import (
	"errors"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/mamaar/csrefactor/pkg/syntax"
	"github.com/mamaar/csrefactor/pkg/types"
)

// CSharpLexer splits C# source into raw tokens. Whitespace, newlines,
// comments and directives are kept so the parser can attach them as trivia.
var CSharpLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Newline", Pattern: `\r\n|\r|\n`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\f\v]+`, Action: nil},
		{Name: "LineComment", Pattern: `//[^\r\n]*`, Action: nil},
		{Name: "BlockComment", Pattern: `/\*(?:[^*]|\*+[^*/])*\*+/`, Action: nil},
		{Name: "Directive", Pattern: `#[a-z]+[^\r\n]*`, Action: nil},

		{Name: "VerbatimString", Pattern: `@"(?:[^"]|"")*"`, Action: nil},
		{Name: "String", Pattern: `\$?"(?:\\.|[^"\\\r\n])*"`, Action: nil},
		{Name: "Char", Pattern: `'(?:\\.|[^'\\\r\n])+'`, Action: nil},
		{Name: "Number", Pattern: `(?:0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?)[uUlLfFdDmM]*`, Action: nil},
		{Name: "Ident", Pattern: `@?[\p{L}_][\p{L}\p{N}_]*`, Action: nil},

		// Longest operators first.
		{Name: "Punct", Pattern: `\?\?=|\?\?|=>|==|!=|<=|>=|&&|\|\||\+\+|--|\+=|-=|::|[{}()\[\];,.:?=!<>&|^~+\-*/%]`, Action: nil},
		{Name: "Unknown", Pattern: `.`, Action: nil},
	},
})

var symbols = CSharpLexer.Symbols()

var (
	tokNewline        = symbols["Newline"]
	tokWhitespace     = symbols["Whitespace"]
	tokLineComment    = symbols["LineComment"]
	tokBlockComment   = symbols["BlockComment"]
	tokDirective      = symbols["Directive"]
	tokVerbatimString = symbols["VerbatimString"]
	tokString         = symbols["String"]
	tokChar           = symbols["Char"]
	tokNumber         = symbols["Number"]
	tokIdent          = symbols["Ident"]
	tokPunct          = symbols["Punct"]
)

// scan lexes src and returns green tokens with trivia attached. Leading
// trivia is everything after the previous token's trailing trivia; trailing
// trivia runs up to and including the first line break. The final token is
// always an end-of-file token holding any remaining trivia.
func scan(path, src string) ([]*syntax.GreenNode, error) {
	lex, err := CSharpLexer.Lex(path, strings.NewReader(src))
	if err != nil {
		return nil, &types.RefactorError{Type: types.ParseError, Message: err.Error(), File: path, Cause: err}
	}
	var raws []lexer.Token
	for {
		tok, err := lex.Next()
		if err != nil {
			var perr *lexer.Error
			if errors.As(err, &perr) {
				return nil, &types.RefactorError{
					Type:    types.ParseError,
					Message: perr.Msg,
					File:    path,
					Line:    perr.Pos.Line,
					Column:  perr.Pos.Column,
					Cause:   err,
				}
			}
			return nil, &types.RefactorError{Type: types.ParseError, Message: err.Error(), File: path, Cause: err}
		}
		if tok.EOF() {
			break
		}
		raws = append(raws, tok)
	}

	var out []*syntax.GreenNode
	var leading []syntax.Trivia
	for i := 0; i < len(raws); i++ {
		if tv, ok := trivia(raws[i]); ok {
			leading = append(leading, tv)
			continue
		}
		kind, value := classify(raws[i])
		var trailing []syntax.Trivia
		for i+1 < len(raws) {
			tv, ok := trivia(raws[i+1])
			if !ok || tv.Kind == syntax.PreprocessorTrivia {
				break
			}
			i++
			trailing = append(trailing, tv)
			if tv.Kind == syntax.EndOfLineTrivia {
				break
			}
		}
		out = append(out, syntax.NewTokenWithTrivia(kind, raws[i-len(trailing)].Value, value, leading, trailing))
		leading = nil
	}
	out = append(out, syntax.NewTokenWithTrivia(syntax.EndOfFileToken, "", nil, leading, nil))
	return out, nil
}

func trivia(t lexer.Token) (syntax.Trivia, bool) {
	switch t.Type {
	case tokNewline:
		return syntax.Trivia{Kind: syntax.EndOfLineTrivia, Text: t.Value}, true
	case tokWhitespace:
		return syntax.Trivia{Kind: syntax.WhitespaceTrivia, Text: t.Value}, true
	case tokLineComment:
		return syntax.Trivia{Kind: syntax.SingleLineCommentTrivia, Text: t.Value}, true
	case tokBlockComment:
		return syntax.Trivia{Kind: syntax.MultiLineCommentTrivia, Text: t.Value}, true
	case tokDirective:
		return syntax.Trivia{Kind: syntax.PreprocessorTrivia, Text: t.Value}, true
	}
	return syntax.Trivia{}, false
}

func classify(t lexer.Token) (syntax.Kind, any) {
	switch t.Type {
	case tokIdent:
		if k, ok := syntax.KeywordKind(t.Value); ok {
			switch k {
			case syntax.TrueKeyword:
				return k, true
			case syntax.FalseKeyword:
				return k, false
			}
			return k, nil
		}
		return syntax.IdentifierToken, strings.TrimPrefix(t.Value, "@")
	case tokNumber:
		return syntax.NumericLiteralToken, numberValue(t.Value)
	case tokString:
		if s, err := strconv.Unquote(strings.TrimPrefix(t.Value, "$")); err == nil {
			return syntax.StringLiteralToken, s
		}
		return syntax.StringLiteralToken, strings.Trim(t.Value, `$"`)
	case tokVerbatimString:
		body := t.Value[2 : len(t.Value)-1]
		return syntax.StringLiteralToken, strings.ReplaceAll(body, `""`, `"`)
	case tokChar:
		if r, _, _, err := strconv.UnquoteChar(t.Value[1:len(t.Value)-1], '\''); err == nil {
			return syntax.CharacterLiteralToken, r
		}
		return syntax.CharacterLiteralToken, nil
	case tokPunct:
		if k, ok := syntax.PunctuationKind(t.Value); ok {
			return k, nil
		}
	}
	return syntax.BadToken, nil
}

func numberValue(text string) any {
	clean := strings.ReplaceAll(text, "_", "")
	isHex := strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X")
	if isHex {
		clean = strings.TrimRight(clean[2:], "uUlL")
		if v, err := strconv.ParseInt(clean, 16, 64); err == nil {
			return v
		}
		return nil
	}
	clean = strings.TrimRight(clean, "uUlLfFdDmM")
	if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(clean, 64); err == nil {
		return v
	}
	return nil
}

package syntax

import (
	lex "github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

type Token struct {
	kind   string
	value  string
	offset int
}

type tokenRule struct {
	kind    string
	pattern string
	name    string
}

var rules = []tokenRule{
	{kind: "Space", pattern: `[ \t]+`, name: "whitespace"},
	{kind: "Comma", pattern: `,`, name: "`,`"},
	{kind: "LeftBracket", pattern: `\[`, name: "`[`"},
	{kind: "RightBracket", pattern: `\]`, name: "`]`"},
	{kind: "Ident", pattern: `[^ \t,\[\]]+`, name: "an identifier"},
}

var lexer *lex.Lexer

var tokenIds = make(map[string]int, len(rules))
var tokenKinds = make([]string, 0, len(rules))

func token(name string) lex.Action {
	return func(s *lex.Scanner, m *machines.Match) (any, error) {
		if _, ok := tokenIds[name]; !ok {
			tokenIds[name] = len(tokenIds)
			tokenKinds = append(tokenKinds, name)
		}

		return s.Token(tokenIds[name], string(m.Bytes), m), nil
	}
}

var tokenNames = make(map[string]string, len(rules))

func init() {
	lexer = lex.NewLexer()

	for _, rule := range rules {
		lexer.Add([]byte(rule.pattern), token(rule.kind))
		tokenNames[rule.kind] = rule.name
	}

	err := lexer.CompileNFA()
	if err != nil {
		panic(err)
	}
}

func Tokenize(source string) ([]*Token, *Error) {
	scanner, err := lexer.Scanner([]byte(source))
	if err != nil {
		panic(err)
	}

	var tokens []*Token
	for token, err, eof := scanner.Next(); !eof; token, err, eof = scanner.Next() {
		if err != nil {
			return nil, &Error{
				Message: "Unexpected character",
				Source:  source,
				Offset:  scanner.TC,
			}
		}

		token := token.(*lex.Token)

		tokens = append(tokens, &Token{
			kind:   tokenKinds[token.Type],
			value:  token.Value.(string),
			offset: token.TC,
		})
	}

	return tokens, nil
}

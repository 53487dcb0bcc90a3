package syntax

import "fmt"

type Parser struct {
	Source string
	tokens []*Token
	index  int
}

func NewParser(source string) (*Parser, *Error) {
	parser := &Parser{Source: source}

	var err *Error
	parser.tokens, err = Tokenize(source)
	if err != nil {
		return nil, err
	}

	return parser, nil
}

func (parser *Parser) backtrack(index int) {
	parser.index = index
}

func (parser *Parser) Error(message string) *Error {
	offset := len(parser.Source)
	if parser.index < len(parser.tokens) {
		offset = parser.tokens[parser.index].offset
	}

	return &Error{
		Message: message,
		Source:  parser.Source,
		Offset:  offset,
	}
}

func (parser *Parser) Token(kind string) (*Token, *Error) {
	if parser.index >= len(parser.tokens) {
		return nil, parser.Error(fmt.Sprintf("Expected %s", tokenNames[kind]))
	}

	token := parser.tokens[parser.index]
	if token.kind != kind {
		return nil, parser.Error(fmt.Sprintf("Expected %s, but found %s", tokenNames[kind], tokenNames[token.kind]))
	}

	parser.index += 1

	return token, nil
}

func (parser *Parser) TryToken(kind string) (*Token, bool) {
	if parser.index >= len(parser.tokens) || parser.tokens[parser.index].kind != kind {
		return nil, false
	}

	token := parser.tokens[parser.index]
	parser.index += 1

	return token, true
}

func (parser *Parser) Finish() *Error {
	if parser.index < len(parser.tokens) {
		token := parser.tokens[parser.index]
		return parser.Error(fmt.Sprintf("Unexpected %s", tokenNames[token.kind]))
	}

	return nil
}

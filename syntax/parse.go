package syntax

// ParseType reads a type expression from source. Identifiers are folded, so
// the result compares case-insensitively with other parsed types.
func ParseType(source string) (*Type, *Error) {
	parser, err := NewParser(source)
	if err != nil {
		return nil, err
	}

	ty, err := parseType(parser)
	if err != nil {
		return nil, err
	}

	if err := parser.Finish(); err != nil {
		return nil, err
	}

	return ty, nil
}

func parseType(parser *Parser) (*Type, *Error) {
	name, err := parser.Token("Ident")
	if err != nil {
		return nil, err
	}

	ty := &Type{Name: FoldIdent(name.value)}

	if _, ok := parser.TryToken("LeftBracket"); !ok {
		return ty, nil
	}

	for {
		param, err := parseType(parser)
		if err != nil {
			return nil, err
		}

		ty.Params = append(ty.Params, param)

		// whitespace is tolerated around commas only
		start := parser.index
		parser.TryToken("Space")
		if _, ok := parser.TryToken("Comma"); !ok {
			parser.backtrack(start)
			break
		}
		parser.TryToken("Space")
	}

	if _, err := parser.Token("RightBracket"); err != nil {
		return nil, err
	}

	return ty, nil
}

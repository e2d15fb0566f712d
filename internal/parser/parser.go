package parser

import (
	"encoding/hex"
	"strconv"

	"github.com/roach88/cypherlite/internal/ast"
)

// MaxQueryLen caps the accepted query text. Queries arrive over a bounded
// transport; anything larger is rejected before lexing.
const MaxQueryLen = 4096

// Parse translates query text into an AST. The returned error, when
// non-nil, is always a *ParseError.
func Parse(input string) (*ast.Query, error) {
	if len(input) > MaxQueryLen {
		return nil, &ParseError{Pos: MaxQueryLen, Message: "query exceeds maximum length"}
	}
	p := &parser{tokens: lex(input), inputLen: len(input)}

	first := p.peek()
	var q ast.Query
	switch {
	case first.isKeyword("CREATE"):
		create, err := p.parseCreate()
		if err != nil {
			return nil, err
		}
		q.Create = create
	case first.isKeyword("MATCH"):
		match, err := p.parseMatch()
		if err != nil {
			return nil, err
		}
		q.Match = match
	default:
		return nil, errAt(first, "expected MATCH or CREATE")
	}

	if tok := p.peek(); tok.kind != tokEOF {
		return nil, errAt(tok, "unexpected trailing input")
	}
	return &q, nil
}

type parser struct {
	tokens   []token
	pos      int
	inputLen int
}

// peek returns the current token without consuming it. Past the end it
// returns a synthetic EOF token positioned after the input.
func (p *parser) peek() token {
	if p.pos >= len(p.tokens) {
		return token{kind: tokEOF, pos: p.inputLen}
	}
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.peek()
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expectPunct(ch string) (token, *ParseError) {
	tok := p.next()
	if !tok.isPunct(ch) {
		return tok, errAt(tok, "expected %q", ch)
	}
	return tok, nil
}

func (p *parser) expectIdent(what string) (token, *ParseError) {
	tok := p.next()
	if tok.kind != tokIdent {
		return tok, errAt(tok, "expected %s", what)
	}
	return tok, nil
}

func (p *parser) expectNumber(what string) (uint64, *ParseError) {
	tok := p.next()
	if tok.kind != tokNumber {
		return 0, errAt(tok, "expected %s", what)
	}
	n, err := strconv.ParseUint(tok.text, 10, 64)
	if err != nil {
		return 0, errAt(tok, "%s out of range", what)
	}
	return n, nil
}

// parseCreate handles both create forms. The token after the opening paren
// disambiguates: a number starts an edge pattern, an identifier a node
// pattern.
func (p *parser) parseCreate() (*ast.CreateQuery, *ParseError) {
	p.next() // CREATE
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	switch tok := p.peek(); tok.kind {
	case tokNumber:
		edge, err := p.parseCreateEdge()
		if err != nil {
			return nil, err
		}
		return &ast.CreateQuery{Edge: edge}, nil
	case tokIdent:
		node, err := p.parseCreateNode()
		if err != nil {
			return nil, err
		}
		return &ast.CreateQuery{Node: node}, nil
	default:
		return nil, errAt(tok, "expected node alias or node id after CREATE (")
	}
}

// parseCreateNode parses `alias:Label { 0xHH }? )` with the opening paren
// already consumed.
func (p *parser) parseCreateNode() (*ast.CreateNode, *ParseError) {
	alias, err := p.expectIdent("node alias")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	label, err := p.expectIdent("node label")
	if err != nil {
		return nil, err
	}

	node := &ast.CreateNode{Alias: alias.text, Label: label.text}
	if p.peek().isPunct("{") {
		p.next()
		data, err := p.parseHexLiteral()
		if err != nil {
			return nil, err
		}
		node.Data = data
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCreateEdge parses `from )-[:Label]->( to )` with the opening paren
// already consumed. Both endpoints are decimal ids of existing nodes;
// existence is a runtime check, not a parse check.
func (p *parser) parseCreateEdge() (*ast.CreateEdge, *ParseError) {
	from, err := p.expectNumber("source node id")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	label, err := p.parseRelArrow()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	to, err := p.expectNumber("target node id")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ast.CreateEdge{From: from, To: to, Label: label}, nil
}

// parseRelArrow parses `-[:Label]->` and returns the relationship label.
// Only the outgoing direction is in the grammar.
func (p *parser) parseRelArrow() (string, *ParseError) {
	if _, err := p.expectPunct("-"); err != nil {
		return "", err
	}
	if _, err := p.expectPunct("["); err != nil {
		return "", err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return "", err
	}
	label, err := p.expectIdent("relationship label")
	if err != nil {
		return "", err
	}
	if _, err := p.expectPunct("]"); err != nil {
		return "", err
	}
	if _, err := p.expectPunct("-"); err != nil {
		return "", err
	}
	if _, err := p.expectPunct(">"); err != nil {
		return "", err
	}
	return label.text, nil
}

// parseHexLiteral decodes a 0x... token into bytes. An odd number of hex
// digits is a parse error; `0x` alone decodes to empty data.
func (p *parser) parseHexLiteral() ([]byte, *ParseError) {
	tok := p.next()
	if tok.kind != tokHex {
		return nil, errAt(tok, "expected hex literal starting with 0x")
	}
	digits := tok.text[2:]
	if len(digits)%2 != 0 {
		return nil, errAt(tok, "hex literal has odd number of digits")
	}
	data, err := hex.DecodeString(digits)
	if err != nil {
		return nil, errAt(tok, "invalid hex literal")
	}
	return data, nil
}

// parseMatch parses the full read-only query. Aliases are resolved here:
// WHERE must name the pattern's source alias and RETURN its final alias,
// since the working set after execution holds the final pattern position.
func (p *parser) parseMatch() (*ast.MatchQuery, *ParseError) {
	p.next() // MATCH

	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}

	m := &ast.MatchQuery{Pattern: *pattern}

	if p.peek().isKeyword("WHERE") {
		where, err := p.parseWhere(pattern)
		if err != nil {
			return nil, err
		}
		m.Where = where
	}

	ret, err := p.parseReturn(pattern)
	if err != nil {
		return nil, err
	}
	m.Return = *ret

	tok := p.next()
	if !tok.isKeyword("LIMIT") {
		return nil, errAt(tok, "MATCH requires LIMIT")
	}
	limit, err := p.expectNumber("limit")
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return nil, errAt(tok, "LIMIT must be at least 1")
	}
	m.Limit = limit
	return m, nil
}

// parsePattern parses `(a:L)` optionally followed by `-[:R]->(b)` or
// `-[:R]->(b:L2)`. Patterns are one or two hops, nothing deeper.
func (p *parser) parsePattern() (*ast.Pattern, *ParseError) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	alias, err := p.expectIdent("node alias")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	label, err := p.expectIdent("node label")
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	pattern := &ast.Pattern{From: ast.NodePattern{Alias: alias.text, Label: label.text}}
	if !p.peek().isPunct("-") {
		return pattern, nil
	}

	relLabel, err := p.parseRelArrow()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	toAlias, err := p.expectIdent("target node alias")
	if err != nil {
		return nil, err
	}
	to := ast.NodePattern{Alias: toAlias.text}
	if to.Alias == pattern.From.Alias {
		return nil, errAt(toAlias, "alias %q already bound", to.Alias)
	}
	if p.peek().isPunct(":") {
		p.next()
		toLabel, err := p.expectIdent("target node label")
		if err != nil {
			return nil, err
		}
		to.Label = toLabel.text
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	pattern.Rel = &ast.RelPattern{Label: relLabel}
	pattern.To = &to
	return pattern, nil
}

// parseWhere parses `WHERE alias.id = N`. Only id equality on the source
// alias is in the grammar; anything else is a parse error.
func (p *parser) parseWhere(pattern *ast.Pattern) (*ast.WherePredicate, *ParseError) {
	p.next() // WHERE

	alias, err := p.expectIdent("alias")
	if err != nil {
		return nil, err
	}
	if alias.text != pattern.From.Alias {
		return nil, errAt(alias, "WHERE must filter the pattern's first alias %q", pattern.From.Alias)
	}
	if _, err := p.expectPunct("."); err != nil {
		return nil, err
	}
	field, err := p.expectIdent("field")
	if err != nil {
		return nil, err
	}
	if field.text != "id" {
		return nil, errAt(field, "only id equality is supported in WHERE")
	}
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	id, err := p.expectNumber("node id")
	if err != nil {
		return nil, err
	}
	return &ast.WherePredicate{Alias: alias.text, ID: id}, nil
}

// parseReturn parses `RETURN alias.field`. The alias must be the pattern's
// final position: that is what the working set holds when results are
// saved.
func (p *parser) parseReturn(pattern *ast.Pattern) (*ast.ReturnClause, *ParseError) {
	tok := p.next()
	if !tok.isKeyword("RETURN") {
		return nil, errAt(tok, "expected RETURN")
	}

	alias, err := p.expectIdent("alias")
	if err != nil {
		return nil, err
	}
	finalAlias := pattern.From.Alias
	if pattern.To != nil {
		finalAlias = pattern.To.Alias
	}
	if alias.text != finalAlias {
		return nil, errAt(alias, "RETURN must project the pattern's final alias %q", finalAlias)
	}
	if _, err := p.expectPunct("."); err != nil {
		return nil, err
	}
	field, err := p.expectIdent("field")
	if err != nil {
		return nil, err
	}
	rf := ast.ReturnField(field.text)
	if !ast.ValidReturnFields[rf] {
		return nil, errAt(field, "unknown return field %q (want id, label, or data)", field.text)
	}
	return &ast.ReturnClause{Alias: alias.text, Field: rf}, nil
}

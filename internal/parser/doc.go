// Package parser turns query text into an ast.Query.
//
// Parsing is two-phase: the lexer produces positioned tokens, the
// recursive-descent parser consumes them against the fixed grammar.
// Any deviation from the grammar yields a *ParseError naming the offending
// token and its byte offset. Parsing never mutates anything and never
// panics on user input: malformed text is a returned error, full stop.
//
// Grammar (keywords are case-insensitive):
//
//	query  = create | match
//	create = "CREATE" "(" ident ":" ident [ "{" hex "}" ] ")"
//	       | "CREATE" "(" number ")" "-[:" ident "]->" "(" number ")"
//	match  = "MATCH" pattern [ where ] return limit
//	pattern= "(" ident ":" ident ")" [ "-[:" ident "]->" "(" ident [ ":" ident ] ")" ]
//	where  = "WHERE" ident "." "id" "=" number
//	return = "RETURN" ident "." ( "id" | "label" | "data" )
//	limit  = "LIMIT" number
//
// LIMIT is mandatory: its absence is a parse error, which keeps every
// result set bounded by construction.
package parser

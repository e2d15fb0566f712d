// Package ast defines the abstract syntax tree for the query grammar.
//
// The grammar is deliberately small: a query is either one CREATE clause or
// one MATCH...RETURN...LIMIT clause, patterns are one or two hops, and the
// only predicate is a single id equality. The parser owns all syntactic
// validation; these types only represent structurally well-formed queries.
package ast

// Query is the root of a parsed query: exactly one of Match or Create is
// set.
type Query struct {
	Match  *MatchQuery
	Create *CreateQuery
}

// IsMutation reports whether executing the query writes to the store.
func (q *Query) IsMutation() bool { return q.Create != nil }

// MatchQuery is a read-only pattern query. Limit is always present: the
// grammar rejects MATCH without LIMIT so result sets are bounded by
// construction.
type MatchQuery struct {
	Pattern Pattern
	Where   *WherePredicate
	Return  ReturnClause
	Limit   uint64
}

// Pattern is the matched shape: a single node, optionally followed by one
// outgoing relationship hop.
type Pattern struct {
	From NodePattern
	// Rel and To are set only for relationship patterns
	// (a:L1)-[:REL]->(b:L2).
	Rel *RelPattern
	To  *NodePattern
}

// NodePattern is (alias:Label). Label may be empty in relationship target
// position; alias is always present for MATCH patterns.
type NodePattern struct {
	Alias string
	Label string
}

// RelPattern is -[:Label]->. Only outgoing direction is in the grammar.
type RelPattern struct {
	Label string
}

// WherePredicate is the single supported predicate: <alias>.id = <value>.
type WherePredicate struct {
	Alias string
	ID    uint64
}

// ReturnField enumerates the projectable node fields.
type ReturnField string

const (
	ReturnID    ReturnField = "id"
	ReturnLabel ReturnField = "label"
	ReturnData  ReturnField = "data"
)

// ValidReturnFields defines the allowed RETURN projections.
var ValidReturnFields = map[ReturnField]bool{
	ReturnID:    true,
	ReturnLabel: true,
	ReturnData:  true,
}

// ReturnClause is RETURN <alias>.<field>.
type ReturnClause struct {
	Alias string
	Field ReturnField
}

// CreateQuery creates either a node or an edge, never both.
type CreateQuery struct {
	Node *CreateNode
	Edge *CreateEdge
}

// CreateNode is CREATE (alias:Label {0xHH...}). Data holds the decoded hex
// attribute bytes and may be empty.
type CreateNode struct {
	Alias string
	Label string
	Data  []byte
}

// CreateEdge is CREATE (from)-[:Label]->(to) between two existing numeric
// node ids.
type CreateEdge struct {
	From  uint64
	To    uint64
	Label string
}

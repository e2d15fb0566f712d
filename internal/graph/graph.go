package graph

import (
	"math"

	"github.com/roach88/cypherlite/internal/errcode"
)

// Default size limits. Capacity is the serialized snapshot budget in bytes;
// the label and data caps keep any single record small enough that one
// append cannot blow past the buffer in a single step.
const (
	DefaultCapacityBytes = 64 * 1024
	DefaultMaxLabelLen   = 32
	DefaultMaxDataLen    = 256
)

// Node is a stored graph node. Id is assigned by the store's nonce and is
// immutable afterwards. OutEdges holds indices into the store's edge slice
// for this node's outgoing edges, maintained by CreateEdge.
type Node struct {
	ID       uint64 `json:"id"`
	Label    string `json:"label"`
	Data     []byte `json:"data,omitempty"`
	OutEdges []int  `json:"out_edges,omitempty"`
}

// Edge is a stored directed edge. From and To reference node ids that
// existed at creation time.
type Edge struct {
	ID    uint64 `json:"id"`
	From  uint64 `json:"from"`
	To    uint64 `json:"to"`
	Label string `json:"label"`
}

// Config bounds a store. Zero values fall back to the defaults above.
type Config struct {
	CapacityBytes int
	MaxLabelLen   int
	MaxDataLen    int
}

func (c Config) withDefaults() Config {
	if c.CapacityBytes == 0 {
		c.CapacityBytes = DefaultCapacityBytes
	}
	if c.MaxLabelLen == 0 {
		c.MaxLabelLen = DefaultMaxLabelLen
	}
	if c.MaxDataLen == 0 {
		c.MaxDataLen = DefaultMaxDataLen
	}
	return c
}

// Store is the in-memory graph repository. Authority is the hex-encoded
// public key permitted to run mutating programs against this store.
type Store struct {
	authority string
	nonce     uint64
	nodes     []Node
	edges     []Edge
	cfg       Config

	// index maps node id -> position in nodes. Rebuilt on load, maintained
	// on append. Ids are monotonic so positions never shift.
	index map[uint64]int
}

// New creates an empty store owned by the given authority.
func New(authority string, cfg Config) *Store {
	return &Store{
		authority: authority,
		cfg:       cfg.withDefaults(),
		index:     make(map[uint64]int),
	}
}

// Authority returns the hex public key allowed to mutate this store.
func (s *Store) Authority() string { return s.authority }

// Nonce returns the next id the store will assign.
func (s *Store) Nonce() uint64 { return s.nonce }

// NodeCount returns the number of stored nodes.
func (s *Store) NodeCount() int { return len(s.nodes) }

// EdgeCount returns the number of stored edges.
func (s *Store) EdgeCount() int { return len(s.edges) }

// Capacity returns the serialized snapshot budget in bytes.
func (s *Store) Capacity() int { return s.cfg.CapacityBytes }

// Nodes returns the node slice in creation order. Read-only: callers must
// not mutate the returned slice.
func (s *Store) Nodes() []Node { return s.nodes }

// Edges returns the edge slice in creation order. Read-only.
func (s *Store) Edges() []Edge { return s.edges }

// GetNode returns the node with the given id.
// Fails with NodeNotFound for ids the nonce never issued.
func (s *Store) GetNode(id uint64) (*Node, error) {
	pos, ok := s.index[id]
	if !ok {
		return nil, errcode.New(errcode.NodeNotFound, "node %d does not exist", id)
	}
	return &s.nodes[pos], nil
}

// HasNode reports whether a node with the given id exists.
func (s *Store) HasNode(id uint64) bool {
	_, ok := s.index[id]
	return ok
}

// GetEdge returns the edge with the given id.
// Fails with EdgeNotFound if no such edge was ever created.
func (s *Store) GetEdge(id uint64) (*Edge, error) {
	for i := range s.edges {
		if s.edges[i].ID == id {
			return &s.edges[i], nil
		}
	}
	return nil, errcode.New(errcode.EdgeNotFound, "edge %d does not exist", id)
}

// CreateNode appends a node and returns its id. The new id equals the
// pre-call nonce; the nonce then advances by one.
func (s *Store) CreateNode(label string, data []byte) (uint64, error) {
	if err := s.checkLabel(label); err != nil {
		return 0, err
	}
	if len(data) > s.cfg.MaxDataLen {
		return 0, errcode.New(errcode.QueryExecutionFailed,
			"node data is %d bytes, limit is %d", len(data), s.cfg.MaxDataLen)
	}
	if err := s.checkCapacity(nodeSnapshotSize(label, data)); err != nil {
		return 0, err
	}
	id, err := s.nextID()
	if err != nil {
		return 0, err
	}

	s.nodes = append(s.nodes, Node{
		ID:    id,
		Label: label,
		Data:  append([]byte(nil), data...),
	})
	s.index[id] = len(s.nodes) - 1
	return id, nil
}

// CreateEdge appends a directed edge between two existing nodes and returns
// its id. Fails with NodeNotFound if either endpoint is absent; in that
// case nothing is appended and the nonce does not advance.
func (s *Store) CreateEdge(from, to uint64, label string) (uint64, error) {
	if err := s.checkLabel(label); err != nil {
		return 0, err
	}
	fromPos, ok := s.index[from]
	if !ok {
		return 0, errcode.New(errcode.NodeNotFound, "edge source node %d does not exist", from)
	}
	if !s.HasNode(to) {
		return 0, errcode.New(errcode.NodeNotFound, "edge target node %d does not exist", to)
	}
	if err := s.checkCapacity(edgeSnapshotSize(label)); err != nil {
		return 0, err
	}
	id, err := s.nextID()
	if err != nil {
		return 0, err
	}

	s.edges = append(s.edges, Edge{ID: id, From: from, To: to, Label: label})
	s.nodes[fromPos].OutEdges = append(s.nodes[fromPos].OutEdges, len(s.edges)-1)
	return id, nil
}

// Clone returns a deep copy sharing nothing with the receiver. The VM
// executes against a clone so a failed program leaves the original intact.
func (s *Store) Clone() *Store {
	c := &Store{
		authority: s.authority,
		nonce:     s.nonce,
		cfg:       s.cfg,
		nodes:     make([]Node, len(s.nodes)),
		edges:     append([]Edge(nil), s.edges...),
		index:     make(map[uint64]int, len(s.index)),
	}
	for i, n := range s.nodes {
		c.nodes[i] = Node{
			ID:       n.ID,
			Label:    n.Label,
			Data:     append([]byte(nil), n.Data...),
			OutEdges: append([]int(nil), n.OutEdges...),
		}
	}
	for id, pos := range s.index {
		c.index[id] = pos
	}
	return c
}

// ReplaceWith adopts the contents of other. Used by the engine to commit a
// successfully executed staging clone back into the caller's handle.
func (s *Store) ReplaceWith(other *Store) {
	s.authority = other.authority
	s.nonce = other.nonce
	s.nodes = other.nodes
	s.edges = other.edges
	s.cfg = other.cfg
	s.index = other.index
}

// nextID allocates the next id from the shared nonce. The counter is an
// explicit uint64; at the ceiling further creation is rejected rather than
// wrapping.
func (s *Store) nextID() (uint64, error) {
	if s.nonce == math.MaxUint64 {
		return 0, errcode.New(errcode.QueryExecutionFailed, "id nonce exhausted")
	}
	id := s.nonce
	s.nonce++
	return id, nil
}

func (s *Store) checkLabel(label string) error {
	if label == "" {
		return errcode.New(errcode.QueryExecutionFailed, "label must not be empty")
	}
	if len(label) > s.cfg.MaxLabelLen {
		return errcode.New(errcode.QueryExecutionFailed,
			"label %q is %d bytes, limit is %d", label, len(label), s.cfg.MaxLabelLen)
	}
	return nil
}

// checkCapacity verifies that appending a record of the given serialized
// size keeps the snapshot within the backing buffer.
func (s *Store) checkCapacity(add int) error {
	if s.snapshotSize()+add > s.cfg.CapacityBytes {
		return errcode.New(errcode.StoreCapacityExceeded,
			"store buffer full: %d of %d bytes used", s.snapshotSize(), s.cfg.CapacityBytes)
	}
	return nil
}

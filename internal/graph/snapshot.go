package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Snapshot wire format, all integers big-endian:
//
//	magic "CYGR" | version u8 | authority (u16 len + bytes) | nonce u64 |
//	node_count u32 | edge_count u32 | nodes... | edges...
//
//	node: id u64 | label (u8 len + bytes) | data (u16 len + bytes) |
//	      out_edges (u16 count + u32 indices)
//	edge: id u64 | from u64 | to u64 | label (u8 len + bytes)
//
// The format is deterministic: records are written in creation order and
// carry no maps, so identical stores serialize to identical bytes.
const (
	snapshotMagic   = "CYGR"
	snapshotVersion = 1
)

const (
	snapshotHeaderSize = 4 + 1 + 2 + 8 + 4 + 4 // excluding authority bytes
	nodeFixedSize      = 8 + 1 + 2 + 2
	edgeFixedSize      = 8 + 8 + 8 + 1
	outEdgeEntrySize   = 4
)

func nodeSnapshotSize(label string, data []byte) int {
	return nodeFixedSize + len(label) + len(data)
}

// edgeSnapshotSize includes the adjacency entry appended to the source node.
func edgeSnapshotSize(label string) int {
	return edgeFixedSize + len(label) + outEdgeEntrySize
}

// snapshotSize returns the exact size MarshalSnapshot would produce.
func (s *Store) snapshotSize() int {
	size := snapshotHeaderSize + len(s.authority)
	for i := range s.nodes {
		n := &s.nodes[i]
		size += nodeFixedSize + len(n.Label) + len(n.Data) + outEdgeEntrySize*len(n.OutEdges)
	}
	for i := range s.edges {
		size += edgeFixedSize + len(s.edges[i].Label)
	}
	return size
}

// MarshalSnapshot serializes the store into the persisted schema. The
// result never exceeds Capacity(): appends are capacity-checked up front.
func (s *Store) MarshalSnapshot() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s.snapshotSize())

	buf.WriteString(snapshotMagic)
	buf.WriteByte(snapshotVersion)
	writeU16(&buf, uint16(len(s.authority)))
	buf.WriteString(s.authority)
	writeU64(&buf, s.nonce)
	writeU32(&buf, uint32(len(s.nodes)))
	writeU32(&buf, uint32(len(s.edges)))

	for i := range s.nodes {
		n := &s.nodes[i]
		writeU64(&buf, n.ID)
		buf.WriteByte(byte(len(n.Label)))
		buf.WriteString(n.Label)
		writeU16(&buf, uint16(len(n.Data)))
		buf.Write(n.Data)
		writeU16(&buf, uint16(len(n.OutEdges)))
		for _, idx := range n.OutEdges {
			writeU32(&buf, uint32(idx))
		}
	}
	for i := range s.edges {
		e := &s.edges[i]
		writeU64(&buf, e.ID)
		writeU64(&buf, e.From)
		writeU64(&buf, e.To)
		buf.WriteByte(byte(len(e.Label)))
		buf.WriteString(e.Label)
	}

	out := buf.Bytes()
	if len(out) > s.cfg.CapacityBytes {
		// Should be unreachable given the per-append checks.
		return nil, fmt.Errorf("snapshot is %d bytes, capacity is %d", len(out), s.cfg.CapacityBytes)
	}
	return out, nil
}

// UnmarshalSnapshot reconstructs a store from a persisted snapshot. The
// config sizes the reconstructed handle, not the snapshot: capacity lives
// with the buffer's owner.
func UnmarshalSnapshot(data []byte, cfg Config) (*Store, error) {
	r := &snapshotReader{data: data}

	magic := r.bytes(4)
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("bad snapshot magic %q", magic)
	}
	if v := r.u8(); v != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", v)
	}

	authority := string(r.bytes(int(r.u16())))
	nonce := r.u64()
	nodeCount := int(r.u32())
	edgeCount := int(r.u32())
	if r.err != nil {
		return nil, fmt.Errorf("truncated snapshot header: %w", r.err)
	}

	s := New(authority, cfg)
	s.nonce = nonce
	s.nodes = make([]Node, 0, nodeCount)
	s.edges = make([]Edge, 0, edgeCount)

	for i := 0; i < nodeCount; i++ {
		n := Node{ID: r.u64()}
		n.Label = string(r.bytes(int(r.u8())))
		if dataLen := int(r.u16()); dataLen > 0 {
			n.Data = append([]byte(nil), r.bytes(dataLen)...)
		}
		outCount := int(r.u16())
		for j := 0; j < outCount; j++ {
			n.OutEdges = append(n.OutEdges, int(r.u32()))
		}
		if r.err != nil {
			return nil, fmt.Errorf("truncated node record %d: %w", i, r.err)
		}
		s.nodes = append(s.nodes, n)
		s.index[n.ID] = i
	}
	for i := 0; i < edgeCount; i++ {
		e := Edge{ID: r.u64(), From: r.u64(), To: r.u64()}
		e.Label = string(r.bytes(int(r.u8())))
		if r.err != nil {
			return nil, fmt.Errorf("truncated edge record %d: %w", i, r.err)
		}
		s.edges = append(s.edges, e)
	}
	if r.rest() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after snapshot", r.rest())
	}
	return s, nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// snapshotReader is a cursor with sticky error handling so decode paths
// stay linear.
type snapshotReader struct {
	data []byte
	pos  int
	err  error
}

func (r *snapshotReader) rest() int { return len(r.data) - r.pos }

func (r *snapshotReader) bytes(n int) []byte {
	if r.err != nil || n < 0 || r.pos+n > len(r.data) {
		if r.err == nil {
			r.err = fmt.Errorf("need %d bytes at offset %d, have %d", n, r.pos, r.rest())
		}
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *snapshotReader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *snapshotReader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *snapshotReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *snapshotReader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

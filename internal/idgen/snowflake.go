// Package idgen produces roughly time-ordered 64-bit identifiers.
package idgen

import (
	"sync"
	"time"
)

// Bit layout (high -> low): timestamp_ms (41) | node_id (10) | sequence (12).
const (
	timestampMask = 0x1ffffffffff
	nodeMask      = 0x03ff
	seqMask       = 0x0fff

	nodeShift      = 12
	timestampShift = 22
)

// Snowflake is a minimal Snowflake-style ID generator.
//
// IDs are strictly positive, unique for the process lifetime, and
// non-decreasing in the order handed to any single caller. The node id keeps
// multiple instances writing to the same store collision-free.
type Snowflake struct {
	nodeID int64

	mu     sync.Mutex
	lastMs int64
	seq    int64
}

// New creates a generator. nodeID is truncated to 10 bits.
func New(nodeID int64) *Snowflake {
	return &Snowflake{nodeID: nodeID & nodeMask}
}

// NextID generates the next unique id.
//
// Wall-clock regressions are pinned forward to the last observed millisecond.
// When the 12-bit sequence wraps within a single millisecond, the call
// busy-waits for the next millisecond (bounded to at most 1ms).
func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := time.Now().UnixMilli()
	if nowMs < s.lastMs {
		nowMs = s.lastMs
	}

	if nowMs == s.lastMs {
		s.seq = (s.seq + 1) & seqMask
		if s.seq == 0 {
			// Sequence overflow within the same millisecond.
			for nowMs <= s.lastMs {
				nowMs = time.Now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastMs = nowMs

	return ((nowMs & timestampMask) << timestampShift) |
		(s.nodeID << nodeShift) |
		s.seq
}

package display

import (
	"sync"

	"github.com/himanshub16/dancevote/feed"
)

// List is the display list: rendered blocks, newest first. Blocks are only
// ever prepended.
type List struct {
	mu     sync.RWMutex
	blocks []Block
	hashes map[string]struct{}
}

func NewList() *List {
	return &List{hashes: make(map[string]struct{})}
}

// Prepend renders e and puts it at the head of the list.
func (l *List) Prepend(e feed.Entry) {
	b := NewBlock(e)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = append(l.blocks, Block{})
	copy(l.blocks[1:], l.blocks)
	l.blocks[0] = b
	l.hashes[e.Hash] = struct{}{}
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.blocks)
}

// Blocks returns a snapshot of the list, newest first.
func (l *List) Blocks() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Block, len(l.blocks))
	copy(out, l.blocks)
	return out
}

// Shows reports whether a block for the song hash has been rendered.
func (l *List) Shows(hash string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.hashes[hash]
	return ok
}

// Package history 保存通过过滤的成交记录。
package history

import (
	"sync"

	"swap-history/internal/model"
)

// DefaultCapacity 未指定容量时的上限
const DefaultCapacity = 1000

// Buffer 有界环形缓冲区，按插入顺序保存成交，满了以后淘汰最旧的记录。
// 只有引擎一个写入方，HTTP 和终端显示可以并发读取。
type Buffer struct {
	mu    sync.RWMutex
	items []model.SwapMessage
	head  int // 最旧记录的位置
	size  int
	total uint64
}

func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]model.SwapMessage, capacity)}
}

// Append 按顺序追加，返回被淘汰的条数
func (b *Buffer) Append(swaps ...model.SwapMessage) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := 0
	capacity := len(b.items)
	for _, s := range swaps {
		if b.size < capacity {
			b.items[(b.head+b.size)%capacity] = s
			b.size++
		} else {
			b.items[b.head] = s
			b.head = (b.head + 1) % capacity
			evicted++
		}
		b.total++
	}
	return evicted
}

// Snapshot 返回全部记录，最旧的在前
func (b *Buffer) Snapshot() []model.SwapMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.SwapMessage, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Recent 返回最近的 n 条记录，最新的在前；n <= 0 返回全部
func (b *Buffer) Recent(n int) []model.SwapMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.size {
		n = b.size
	}
	out := make([]model.SwapMessage, n)
	for i := 0; i < n; i++ {
		out[i] = b.items[(b.head+b.size-1-i)%len(b.items)]
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *Buffer) Cap() int {
	return len(b.items)
}

// Total 历史上追加过的总条数 (包括已淘汰的)
func (b *Buffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

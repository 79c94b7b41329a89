// Package pair 保存当前选中的交易对及其解析状态。
// 状态由外部 (配置、HTTP 接口) 写入，引擎和渲染器只读。
package pair

import (
	"fmt"
	"strings"
	"sync"
)

// Status 交易对解析状态
type Status string

const (
	StatusLoading   Status = "loading"
	StatusNotExists Status = "not_exists"
	StatusInvalid   Status = "invalid" // 未选择代币
	StatusReady     Status = "ready"
)

// ParseStatus 解析配置或请求中的状态字符串 (大小写不敏感)
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusLoading, StatusNotExists, StatusInvalid, StatusReady:
		return st, nil
	case "":
		return StatusInvalid, nil
	}
	return "", fmt.Errorf("unknown pair status: %q", s)
}

type Token struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address,omitempty"`
}

// Pair 交易对，Address 为流动性代币地址
type Pair struct {
	Address string `json:"address"`
	Token0  Token  `json:"token0"`
	Token1  Token  `json:"token1"`
}

// State 交易对状态快照
type State struct {
	Status Status `json:"status"`
	Pair   *Pair  `json:"pair,omitempty"`
}

// Address 只有 ready 且地址非空时才可用于匹配
func (s State) Address() (string, bool) {
	if s.Status != StatusReady || s.Pair == nil || s.Pair.Address == "" {
		return "", false
	}
	return s.Pair.Address, true
}

// Token0Symbol 表头中数量列使用的代币符号
func (s State) Token0Symbol() string {
	if s.Pair == nil {
		return ""
	}
	return s.Pair.Token0.Symbol
}

// Store 并发安全的交易对状态容器
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore(initial State) *Store {
	return &Store{state: initial}
}

func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Store) SetLoading() {
	s.Set(State{Status: StatusLoading})
}

func (s *Store) SetNotExists() {
	s.Set(State{Status: StatusNotExists})
}

func (s *Store) SetInvalid() {
	s.Set(State{Status: StatusInvalid})
}

// SetReady 选中交易对；地址为空时退化为 invalid
func (s *Store) SetReady(p Pair) {
	if p.Address == "" {
		s.SetInvalid()
		return
	}
	s.Set(State{Status: StatusReady, Pair: &p})
}

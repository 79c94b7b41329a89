package model

import "time"

// Side 成交方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// IsBuy 只有 BUY 视为买入，其余一律按卖出展示
func (s Side) IsBuy() bool {
	return s == SideBuy
}

// ChainID 区块链网络 ID
type ChainID int64

// SwapMessage 代表一笔已成交的兑换，接收后不可变
type SwapMessage struct {
	ChainID    ChainID `json:"chainId"`
	AmountBase float64 `json:"amountBase"`
	Side       Side    `json:"side"`
	Timestamp  int64   `json:"timestamp"` // 秒级时间戳
	Price      float64 `json:"price"`     // USD
	TxHash     string  `json:"txHash"`
	PriceBase  float64 `json:"priceBase,omitempty"` // 入库时不保留
	Maker      string  `json:"maker"`
}

// Key 展示用的行标识 (maker-txHash)，不做去重
func (s SwapMessage) Key() string {
	return s.Maker + "-" + s.TxHash
}

// Time 成交时间
func (s SwapMessage) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// Batch 一条推送消息中通过过滤的全部成交
type Batch struct {
	ChainID ChainID       `json:"chainId"`
	Pair    string        `json:"pair"`
	Swaps   []SwapMessage `json:"swaps"`
}

package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"swap-history/internal/model"
	"swap-history/internal/pair"
)

// 过滤失败的类型。调用方目前的策略是忽略并继续，但每种原因都可以用 errors.Is 区分。
var (
	ErrPairUnresolved = errors.New("pair not resolved")
	ErrMalformed      = errors.New("malformed payload")
	ErrNoEnvelope     = errors.New("no data envelope")
	ErrStatusNotOK    = errors.New("result status not ok")
	ErrPairMismatch   = errors.New("pair mismatch")
)

// StatusOK 推送结果中表示成功的 status
const StatusOK = "ok"

// swapPayload 推送中的单笔成交
type swapPayload struct {
	AmountBase float64    `json:"amountBase"`
	Side       model.Side `json:"side"`
	Timestamp  float64    `json:"timestamp"`
	Price      float64    `json:"price"`
	TxHash     string     `json:"txHash"`
	PriceBase  float64    `json:"priceBase"`
	Maker      string     `json:"maker"`
}

type resultData struct {
	ChainID model.ChainID  `json:"chainId"`
	Pair    *string        `json:"pair"`
	Swaps   *[]swapPayload `json:"swaps"`
}

// Filter 解析一条原始推送，返回属于当前交易对的成交。
//
// 外层 JSON 的 data 字段是二次编码的字符串，内层结构为
// {"result":{"status":"ok","data":{"chainId":..,"pair":..,"swaps":[..]}}}。
// 交易对地址比较不区分大小写；priceBase 不会被保留。
func Filter(raw []byte, state pair.State) (model.Batch, error) {
	selected, ok := state.Address()
	if !ok {
		return model.Batch{}, ErrPairUnresolved
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return model.Batch{}, fmt.Errorf("%w: outer frame: %v", ErrMalformed, err)
	}
	encoded, ok := outer["data"]
	if !ok {
		return model.Batch{}, ErrNoEnvelope
	}

	var inner string
	if err := json.Unmarshal(encoded, &inner); err != nil {
		return model.Batch{}, fmt.Errorf("%w: data is not an encoded string: %v", ErrMalformed, err)
	}
	if !json.Valid([]byte(inner)) {
		return model.Batch{}, fmt.Errorf("%w: inner payload is not JSON", ErrMalformed)
	}

	data, err := okResultData([]byte(inner))
	if err != nil {
		return model.Batch{}, err
	}

	var rd resultData
	if err := json.Unmarshal(data, &rd); err != nil {
		return model.Batch{}, fmt.Errorf("%w: result data: %v", ErrMalformed, err)
	}
	if rd.Pair == nil {
		return model.Batch{}, fmt.Errorf("%w: result data has no pair", ErrMalformed)
	}
	if !strings.EqualFold(*rd.Pair, selected) {
		return model.Batch{}, ErrPairMismatch
	}
	if rd.Swaps == nil {
		return model.Batch{}, fmt.Errorf("%w: result data has no swaps", ErrMalformed)
	}

	swaps := make([]model.SwapMessage, 0, len(*rd.Swaps))
	for _, p := range *rd.Swaps {
		swaps = append(swaps, model.SwapMessage{
			ChainID:    rd.ChainID,
			AmountBase: p.AmountBase,
			Side:       p.Side,
			Timestamp:  int64(math.Floor(p.Timestamp)),
			Price:      p.Price,
			TxHash:     p.TxHash,
			Maker:      p.Maker,
		})
	}

	return model.Batch{ChainID: rd.ChainID, Pair: *rd.Pair, Swaps: swaps}, nil
}

// okResultData 取出 status 为 ok 的 result.data；结构不符一律视为非 ok
func okResultData(inner []byte) (json.RawMessage, error) {
	var env struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(inner, &env); err != nil || len(env.Result) == 0 {
		return nil, ErrStatusNotOK
	}

	var result struct {
		Status json.RawMessage `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, ErrStatusNotOK
	}

	var status string
	if err := json.Unmarshal(result.Status, &status); err != nil || status != StatusOK {
		return nil, ErrStatusNotOK
	}

	if len(result.Data) == 0 || string(result.Data) == "null" {
		return nil, fmt.Errorf("%w: ok result without data", ErrMalformed)
	}
	return result.Data, nil
}

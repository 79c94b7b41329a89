// Package render 把交易对状态和成交历史转换为可展示的列表。
package render

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"swap-history/internal/model"
	"swap-history/internal/pair"
	"swap-history/internal/service"
)

// Row 列表中的一行成交
type Row struct {
	Key     string     `json:"key"` // maker-txHash
	Network string     `json:"network"`
	Price   string     `json:"price"`
	Size    string     `json:"size"`
	Time    string     `json:"time"`
	Side    model.Side `json:"side"`
	Buy     bool       `json:"buy"` // 买入绿色，其余红色
}

// View 渲染结果，四种状态互斥：加载中 / 交易对不存在 / 未选择 / 列表
type View struct {
	Status  pair.Status `json:"status"`
	Loading bool        `json:"loading,omitempty"`
	Message string      `json:"message,omitempty"`
	Header  []string    `json:"header,omitempty"`
	Rows    []Row       `json:"rows,omitempty"`
}

type Options struct {
	Locale   string
	Location *time.Location // 默认本地时区
	Limit    int            // 只显示最近的 N 条，0 表示全部
}

type Renderer struct {
	printer    *message.Printer
	timeLayout string
	location   *time.Location
	limit      int
}

func NewRenderer(opts Options) *Renderer {
	tag := ResolveLocale(opts.Locale)
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	layout, ok := timeLayouts[tag]
	if !ok {
		layout = timeLayouts[language.English]
	}
	return &Renderer{
		printer:    newPrinter(tag),
		timeLayout: layout,
		location:   loc,
		limit:      opts.Limit,
	}
}

// Build 根据交易对状态生成视图；swaps 为插入顺序，输出时最新的在前
func (r *Renderer) Build(state pair.State, swaps []model.SwapMessage) View {
	return r.BuildN(state, swaps, r.limit)
}

// BuildN 同 Build，但只保留最近的 limit 条 (0 表示全部)，不受 Options.Limit 限制
func (r *Renderer) BuildN(state pair.State, swaps []model.SwapMessage, limit int) View {
	switch state.Status {
	case pair.StatusLoading:
		return View{Status: state.Status, Loading: true, Message: r.printer.Sprintf(MsgLoading)}
	case pair.StatusNotExists:
		return View{Status: state.Status, Message: r.printer.Sprintf(MsgPairNotExists)}
	case pair.StatusReady:
	default:
		return View{Status: pair.StatusInvalid, Message: r.printer.Sprintf(MsgSelectToken)}
	}

	header := []string{
		r.printer.Sprintf(MsgNetwork),
		r.printer.Sprintf(MsgPrice) + " USD",
		r.printer.Sprintf(MsgSize) + " " + state.Token0Symbol(),
		r.printer.Sprintf(MsgTime),
	}

	start := 0
	if limit > 0 && len(swaps) > limit {
		start = len(swaps) - limit
	}
	rows := make([]Row, 0, len(swaps)-start)
	for i := len(swaps) - 1; i >= start; i-- {
		rows = append(rows, r.row(swaps[i]))
	}

	return View{Status: pair.StatusReady, Header: header, Rows: rows}
}

func (r *Renderer) row(s model.SwapMessage) Row {
	return Row{
		Key:     s.Key(),
		Network: model.NetworkLabel(s.ChainID),
		Price:   service.FormatPrice(s.Price),
		Size:    service.FormatNum(s.AmountBase),
		Time:    s.Time().In(r.location).Format(r.timeLayout),
		Side:    s.Side,
		Buy:     s.Side.IsBuy(),
	}
}

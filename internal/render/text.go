package render

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"swap-history/internal/model"
	"swap-history/internal/pair"
)

const (
	columnWidth = 16
	clearScreen = "\033[H\033[2J"
)

var (
	colorMuted = lipgloss.Color("#7F7F7F")
	colorBuy   = lipgloss.Color("#27AE60")
	colorSell  = lipgloss.Color("#E74C3C")
)

// WriteText 把视图写成终端表格，颜色取决于 w 是否为终端
func (r *Renderer) WriteText(w io.Writer, v View) error {
	lr := lipgloss.NewRenderer(w)
	muted := lr.NewStyle().Foreground(colorMuted)

	if len(v.Header) == 0 {
		_, err := io.WriteString(w, muted.Render(v.Message)+"\n")
		return err
	}

	left := lr.NewStyle().Width(columnWidth)
	right := lr.NewStyle().Width(columnWidth).Align(lipgloss.Right)

	var sb strings.Builder
	headerCells := make([]string, len(v.Header))
	for i, h := range v.Header {
		style := right
		if i == 0 {
			style = left
		}
		headerCells[i] = style.Inherit(muted).Render(h)
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))
	sb.WriteString("\n")

	for _, row := range v.Rows {
		priceColor := colorSell
		if row.Buy {
			priceColor = colorBuy
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			left.Inherit(muted).Render(row.Network),
			right.Foreground(priceColor).Render(row.Price),
			right.Render(row.Size),
			right.Inherit(muted).Render(row.Time),
		))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// Source 提供当前交易对状态和历史 (插入顺序)
type Source func() (pair.State, []model.SwapMessage)

// Watch 按固定间隔清屏重绘，直到 ctx 取消
func (r *Renderer) Watch(ctx context.Context, w io.Writer, interval time.Duration, src Source) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := io.WriteString(w, clearScreen); err != nil {
			return err
		}
		state, swaps := src()
		if err := r.WriteText(w, r.Build(state, swaps)); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

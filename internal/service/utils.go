package service

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 价格与数量统一按 en-US 习惯格式化 (千分位逗号)
var numPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatPrice 把美元价格格式化为 "$1,234.50"，固定两位小数
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return "$0.00"
	}
	if price < 0 {
		return "-" + FormatPrice(-price)
	}
	return "$" + numPrinter.Sprintf("%.2f", price)
}

// FormatNum 格式化成交数量:
//   - 0 -> "0"
//   - (0, 0.0001) -> "< 0.0001"
//   - > 1000 -> 取整并加千分位，例如 "12,346"
//   - > 5 亿 -> 缩写，例如 "1.5b"
//   - 其余保留最多 5 位小数并去掉末尾的 0
func FormatNum(num float64) string {
	switch {
	case math.IsNaN(num) || math.IsInf(num, 0):
		return "0"
	case num > 500_000_000:
		return abbreviate(num)
	case num == 0:
		return "0"
	case num > 0 && num < 0.0001:
		return "< 0.0001"
	case num > 1000:
		return numPrinter.Sprintf("%.0f", num)
	}
	return trimZeros(numPrinter.Sprintf("%.5f", num))
}

func abbreviate(num float64) string {
	units := []struct {
		div    float64
		suffix string
	}{
		{1e12, "t"},
		{1e9, "b"},
		{1e6, "m"},
	}
	for _, u := range units {
		if num >= u.div {
			return trimZeros(numPrinter.Sprintf("%.2f", num/u.div)) + u.suffix
		}
	}
	return numPrinter.Sprintf("%.0f", num)
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// 界面文案 (英文原文即为消息键)
const (
	MsgLoading       = "Loading..."
	MsgPairNotExists = "Pair does not exist"
	MsgSelectToken   = "Please select a token"
	MsgNetwork       = "Network"
	MsgPrice         = "Price"
	MsgSize          = "Size"
	MsgTime          = "Time"
)

var supported = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(supported)

var translations = map[language.Tag]map[string]string{
	language.Chinese: {
		MsgLoading:       "加载中...",
		MsgPairNotExists: "交易对不存在",
		MsgSelectToken:   "请选择代币",
		MsgNetwork:       "网络",
		MsgPrice:         "价格",
		MsgSize:          "数量",
		MsgTime:          "时间",
	},
}

// 成交时间的本地化格式
var timeLayouts = map[language.Tag]string{
	language.English: "3:04:05 PM",
	language.Chinese: "15:04:05",
}

var messages = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, key := range []string{MsgLoading, MsgPairNotExists, MsgSelectToken, MsgNetwork, MsgPrice, MsgSize, MsgTime} {
		_ = b.SetString(language.English, key, key)
	}
	for tag, msgs := range translations {
		for key, msg := range msgs {
			_ = b.SetString(tag, key, msg)
		}
	}
	return b
}

// ResolveLocale 把配置中的语言 (en, zh-CN ...) 匹配到支持的语言，默认英文
func ResolveLocale(locale string) language.Tag {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return supported[idx]
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}

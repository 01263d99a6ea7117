package util

import (
	"errors"
	"strings"

	"cex-match/conf"
)

// ErrUnsupportedSymbol 不支持的交易对（无法按计价币后缀拆分）
var ErrUnsupportedSymbol = errors.New("unsupported symbol")

// NormalizeSymbol 规范化交易对：去掉分隔符并转大写，BTC/USDT -> BTCUSDT
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// SplitSymbol 按计价币后缀拆分交易对，返回 (基础币, 计价币)
// 只接受配置内计价币结尾且基础币非空的交易对
func SplitSymbol(symbol string, quoteCoins []string) (string, string, error) {
	clean := NormalizeSymbol(symbol)
	for _, quote := range quoteCoins {
		quote = strings.ToUpper(quote)
		if strings.HasSuffix(clean, quote) && len(clean) > len(quote) {
			return strings.TrimSuffix(clean, quote), quote, nil
		}
	}
	return "", "", ErrUnsupportedSymbol
}

// QuoteCoins 读取配置的计价币列表，未配置时默认 USDT
func QuoteCoins() []string {
	coins := conf.GetConf().MatchEngine.QuoteCoins
	if len(coins) == 0 {
		return []string{"USDT"}
	}
	return coins
}

// ParsePairs 解析逗号分隔的交易对列表
func ParsePairs(s string) []string {
	var res []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			res = append(res, NormalizeSymbol(p))
		}
	}
	return res
}

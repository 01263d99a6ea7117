package util

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"BTC/USDT": "BTCUSDT",
		"btcusdt":  "BTCUSDT",
		"eth/usdt": "ETHUSDT",
		"BTCUSDT":  "BTCUSDT",
	}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSplitSymbol(t *testing.T) {
	quotes := []string{"USDT", "USDC"}

	cases := []struct {
		symbol string
		base   string
		quote  string
	}{
		{"BTCUSDT", "BTC", "USDT"},
		{"BTC/USDT", "BTC", "USDT"},
		{"ethusdc", "ETH", "USDC"},
	}
	for _, c := range cases {
		base, quote, err := SplitSymbol(c.symbol, quotes)
		if err != nil {
			t.Errorf("SplitSymbol(%q) failed: %v", c.symbol, err)
			continue
		}
		if base != c.base || quote != c.quote {
			t.Errorf("SplitSymbol(%q) = (%q, %q), want (%q, %q)", c.symbol, base, quote, c.base, c.quote)
		}
	}

	// 计价币本身、空串、不在列表里的后缀都不接受
	for _, bad := range []string{"USDT", "", "BTCEUR", "usdc"} {
		if _, _, err := SplitSymbol(bad, quotes); !errors.Is(err, ErrUnsupportedSymbol) {
			t.Errorf("SplitSymbol(%q) err = %v, want ErrUnsupportedSymbol", bad, err)
		}
	}
}

func TestParsePairs(t *testing.T) {
	got := ParsePairs(" btc/usdt , ETHUSDT ,, ")
	want := []string{"BTCUSDT", "ETHUSDT"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParsePairs = %v, want %v", got, want)
	}
	if got := ParsePairs(""); got != nil {
		t.Errorf("ParsePairs(\"\") = %v, want nil", got)
	}
}

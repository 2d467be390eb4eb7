package exchange

// Known quote currencies for pair splitting, longest match wins
var quotes = []string{
	"USDT",
	"BUSD",
	"USDC",
	"BTC",
	"BNB",
	"ETH",
	"EUR",
	"TRY",
	"AUD",
	"BRL",
	"GBP",
	"USD",
	"NGN",
}

// SplitAssetQuote splits a trading pair like BTCUSDT into its base asset and
// quote currency. Unknown quotes fall back to splitting the pair in half.
func SplitAssetQuote(pair string) (asset, quote string) {
	for _, q := range quotes {
		if len(pair) > len(q) && pair[len(pair)-len(q):] == q {
			return pair[:len(pair)-len(q)], q
		}
	}
	return pair[:len(pair)/2], pair[len(pair)/2:]
}

package resolver

import "github.com/newthinker/cryptodesk/internal/core"

// Asset is one supported cryptocurrency. Name and Aliases are lowercase.
type Asset struct {
	Symbol      core.Ticker `json:"symbol"`
	Name        string      `json:"name"`
	Aliases     []string    `json:"aliases,omitempty"`
	CoinGeckoID string      `json:"coingecko_id"`
}

// assets is the supported set, roughly the top 50 by market cap excluding
// stablecoins. Order matters: it breaks ties between equal matches.
var assets = []Asset{
	{Symbol: "BTC", Name: "bitcoin", CoinGeckoID: "bitcoin"},
	{Symbol: "ETH", Name: "ethereum", CoinGeckoID: "ethereum"},
	{Symbol: "BNB", Name: "binance coin", Aliases: []string{"binancecoin"}, CoinGeckoID: "binancecoin"},
	{Symbol: "SOL", Name: "solana", CoinGeckoID: "solana"},
	{Symbol: "XRP", Name: "ripple", CoinGeckoID: "ripple"},
	{Symbol: "DOGE", Name: "dogecoin", CoinGeckoID: "dogecoin"},
	{Symbol: "ADA", Name: "cardano", CoinGeckoID: "cardano"},
	{Symbol: "TRX", Name: "tron", CoinGeckoID: "tron"},
	{Symbol: "TON", Name: "toncoin", Aliases: []string{"the-open-network"}, CoinGeckoID: "the-open-network"},
	{Symbol: "AVAX", Name: "avalanche", Aliases: []string{"avalanche-2"}, CoinGeckoID: "avalanche-2"},
	{Symbol: "SHIB", Name: "shiba inu", Aliases: []string{"shiba-inu"}, CoinGeckoID: "shiba-inu"},
	{Symbol: "DOT", Name: "polkadot", CoinGeckoID: "polkadot"},
	{Symbol: "LINK", Name: "chainlink", CoinGeckoID: "chainlink"},
	{Symbol: "BCH", Name: "bitcoin cash", Aliases: []string{"bitcoin-cash"}, CoinGeckoID: "bitcoin-cash"},
	{Symbol: "SUI", Name: "sui", CoinGeckoID: "sui"},
	{Symbol: "LTC", Name: "litecoin", CoinGeckoID: "litecoin"},
	{Symbol: "NEAR", Name: "near protocol", CoinGeckoID: "near"},
	{Symbol: "APT", Name: "aptos", CoinGeckoID: "aptos"},
	{Symbol: "UNI", Name: "uniswap", CoinGeckoID: "uniswap"},
	{Symbol: "ICP", Name: "internet computer", Aliases: []string{"internet-computer"}, CoinGeckoID: "internet-computer"},
	{Symbol: "PEPE", Name: "pepe", CoinGeckoID: "pepe"},
	{Symbol: "XLM", Name: "stellar", CoinGeckoID: "stellar"},
	{Symbol: "ETC", Name: "ethereum classic", Aliases: []string{"ethereum-classic"}, CoinGeckoID: "ethereum-classic"},
	{Symbol: "HBAR", Name: "hedera", Aliases: []string{"hedera-hashgraph"}, CoinGeckoID: "hedera-hashgraph"},
	{Symbol: "FIL", Name: "filecoin", CoinGeckoID: "filecoin"},
	{Symbol: "ATOM", Name: "cosmos", CoinGeckoID: "cosmos"},
	{Symbol: "KAS", Name: "kaspa", CoinGeckoID: "kaspa"},
	{Symbol: "CRO", Name: "cronos", Aliases: []string{"crypto.com coin"}, CoinGeckoID: "crypto-com-chain"},
	{Symbol: "MNT", Name: "mantle", CoinGeckoID: "mantle"},
	{Symbol: "ARB", Name: "arbitrum", CoinGeckoID: "arbitrum"},
	{Symbol: "OP", Name: "optimism", CoinGeckoID: "optimism"},
	{Symbol: "VET", Name: "vechain", CoinGeckoID: "vechain"},
	{Symbol: "INJ", Name: "injective", Aliases: []string{"injective-protocol"}, CoinGeckoID: "injective-protocol"},
	{Symbol: "RENDER", Name: "render", Aliases: []string{"render-token"}, CoinGeckoID: "render-token"},
	{Symbol: "IMX", Name: "immutable", Aliases: []string{"immutable-x"}, CoinGeckoID: "immutable-x"},
	{Symbol: "STX", Name: "stacks", CoinGeckoID: "blockstack"},
	{Symbol: "TAO", Name: "bittensor", CoinGeckoID: "bittensor"},
	{Symbol: "FET", Name: "fetch.ai", Aliases: []string{"fetch-ai"}, CoinGeckoID: "fetch-ai"},
	{Symbol: "AAVE", Name: "aave", CoinGeckoID: "aave"},
	{Symbol: "MKR", Name: "maker", CoinGeckoID: "maker"},
	{Symbol: "GRT", Name: "the graph", Aliases: []string{"the-graph"}, CoinGeckoID: "the-graph"},
	{Symbol: "ALGO", Name: "algorand", CoinGeckoID: "algorand"},
	{Symbol: "XMR", Name: "monero", CoinGeckoID: "monero"},
	{Symbol: "POL", Name: "polygon", Aliases: []string{"matic", "polygon-ecosystem-token"}, CoinGeckoID: "polygon-ecosystem-token"},
	{Symbol: "LDO", Name: "lido dao", Aliases: []string{"lido-dao"}, CoinGeckoID: "lido-dao"},
	{Symbol: "ENA", Name: "ethena", CoinGeckoID: "ethena"},
	{Symbol: "ONDO", Name: "ondo", Aliases: []string{"ondo-finance"}, CoinGeckoID: "ondo-finance"},
	{Symbol: "SAND", Name: "the sandbox", Aliases: []string{"the-sandbox"}, CoinGeckoID: "the-sandbox"},
	{Symbol: "MANA", Name: "decentraland", CoinGeckoID: "decentraland"},
	{Symbol: "HYPE", Name: "hyperliquid", CoinGeckoID: "hyperliquid"},
	{Symbol: "SEI", Name: "sei", Aliases: []string{"sei-network"}, CoinGeckoID: "sei-network"},
	{Symbol: "THETA", Name: "theta", Aliases: []string{"theta-network"}, CoinGeckoID: "theta-token"},
	{Symbol: "QNT", Name: "quant", Aliases: []string{"quant-network"}, CoinGeckoID: "quant-network"},
}

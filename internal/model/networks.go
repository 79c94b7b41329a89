package model

import "strconv"

const (
	ChainMainnet        ChainID = 1
	ChainRopsten        ChainID = 3
	ChainRinkeby        ChainID = 4
	ChainGoerli         ChainID = 5
	ChainKovan          ChainID = 42
	ChainBSC            ChainID = 56
	ChainOKEx           ChainID = 66
	ChainOKExTestnet    ChainID = 65
	ChainBSCTestnet     ChainID = 97
	ChainXDai           ChainID = 100
	ChainHeco           ChainID = 128
	ChainMatic          ChainID = 137
	ChainFantom         ChainID = 250
	ChainHecoTestnet    ChainID = 256
	ChainMoonbase       ChainID = 1287
	ChainFantomTestnet  ChainID = 4002
	ChainArbitrum       ChainID = 42161
	ChainAvalancheFuji  ChainID = 43113
	ChainAvalanche      ChainID = 43114
	ChainMaticTestnet   ChainID = 80001
	ChainHarmony        ChainID = 1666600000
	ChainHarmonyTestnet ChainID = 1666700000
)

var networkLabels = map[ChainID]string{
	ChainMainnet:        "Ethereum",
	ChainRopsten:        "Ropsten",
	ChainRinkeby:        "Rinkeby",
	ChainGoerli:         "Görli",
	ChainKovan:          "Kovan",
	ChainBSC:            "BSC",
	ChainOKEx:           "OKEx",
	ChainOKExTestnet:    "OKEx Testnet",
	ChainBSCTestnet:     "BSC Testnet",
	ChainXDai:           "xDai",
	ChainHeco:           "HECO",
	ChainMatic:          "Matic",
	ChainFantom:         "Fantom",
	ChainHecoTestnet:    "HECO Testnet",
	ChainMoonbase:       "Moonbase",
	ChainFantomTestnet:  "Fantom Testnet",
	ChainArbitrum:       "Arbitrum",
	ChainAvalancheFuji:  "Fuji",
	ChainAvalanche:      "Avalanche",
	ChainMaticTestnet:   "Matic Testnet",
	ChainHarmony:        "Harmony",
	ChainHarmonyTestnet: "Harmony Testnet",
}

// NetworkLabel 返回网络名称，未知网络返回数字 ID
func NetworkLabel(id ChainID) string {
	if label, ok := networkLabels[id]; ok {
		return label
	}
	return strconv.FormatInt(int64(id), 10)
}

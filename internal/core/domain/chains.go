package domain

import "strings"

type ChainID string
type ChainName string

// NoChain keys checkpoints of producers that are not bound to a chain.
const NoChain ChainID = ""

const (
	// Chain IDs
	ChainIDMainnet  ChainID = "1"
	ChainIDGnosis   ChainID = "100"
	ChainIDBase     ChainID = "8453"
	ChainIDArbitrum ChainID = "42161"
	ChainIDSepolia  ChainID = "11155111"

	// Chain Names (Internal Codes)
	ChainNameMainnet  ChainName = "MAINNET"
	ChainNameGnosis   ChainName = "GNOSIS_CHAIN"
	ChainNameBase     ChainName = "BASE"
	ChainNameArbitrum ChainName = "ARBITRUM_ONE"
	ChainNameSepolia  ChainName = "SEPOLIA"
)

// ChainIDToName maps ChainID to its human-readable InternalCode/Name.
var ChainIDToName = map[ChainID]ChainName{
	ChainIDMainnet:  ChainNameMainnet,
	ChainIDGnosis:   ChainNameGnosis,
	ChainIDBase:     ChainNameBase,
	ChainIDArbitrum: ChainNameArbitrum,
	ChainIDSepolia:  ChainNameSepolia,
}

// ChainNameToID maps Chain Name to its ID.
var ChainNameToID = map[ChainName]ChainID{
	ChainNameMainnet:  ChainIDMainnet,
	ChainNameGnosis:   ChainIDGnosis,
	ChainNameBase:     ChainIDBase,
	ChainNameArbitrum: ChainIDArbitrum,
	ChainNameSepolia:  ChainIDSepolia,
}

// explorerNetwork is the path prefix the order explorer uses per chain.
var explorerNetwork = map[ChainID]string{
	ChainIDMainnet:  "",
	ChainIDGnosis:   "gc",
	ChainIDBase:     "base",
	ChainIDArbitrum: "arb1",
	ChainIDSepolia:  "sepolia",
}

// IsSupported reports whether the chain is known to the notifier.
func (c ChainID) IsSupported() bool {
	_, ok := ChainIDToName[c]
	return ok
}

// ExplorerPath returns the explorer base URL for the chain, e.g. https://explorer.cow.fi/gc.
func (c ChainID) ExplorerPath(base string) string {
	base = strings.TrimRight(base, "/")
	if network := explorerNetwork[c]; network != "" {
		return base + "/" + network
	}
	return base
}

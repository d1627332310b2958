package domain

// BlockHeader is the subset of a block the producers need.
type BlockHeader struct {
	Number    uint64
	Hash      string
	Timestamp uint64
}

package interfaces

import (
	"github.com/golang/protobuf/ptypes/timestamp"
)

// HistoryEntry represents a single history entry from Fabric
type HistoryEntry struct {
	TxID      string               `json:"txId"`
	Timestamp *timestamp.Timestamp `json:"timestamp"`
	IsDelete  bool                 `json:"isDelete"`
	Value     []byte               `json:"value"`
}
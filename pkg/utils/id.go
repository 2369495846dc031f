package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// IDGenerator hands out time-ordered identifiers for bill numbers and ledger entries.
// Snowflake ids are strictly increasing per node, so ledger ids sort in posting order.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator creates a generator for the given snowflake node (0-1023)
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &IDGenerator{node: node}, nil
}

// NextTransactionID returns the display id ("TXN-<n>") and its numeric sequence
func (g *IDGenerator) NextTransactionID() (string, int64) {
	id := g.node.Generate()
	return "TXN-" + id.String(), id.Int64()
}

// NextBillNumber returns a globally unique, human readable bill number
func (g *IDGenerator) NextBillNumber() string {
	return "BILL-" + strings.ToUpper(g.node.Generate().Base36())
}

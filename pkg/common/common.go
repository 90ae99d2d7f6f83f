package common

import (
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 generates a snowflake int64 id. The node number comes from
// STOCKLIGHT_NODE_ID when set, otherwise a random node is used.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		nodeID := int64(rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1023)) //nolint:gosec
		if v := os.Getenv("STOCKLIGHT_NODE_ID"); v != "" {
			nodeID = cast.ToInt64(v) % 1024
		}
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			node, _ = snowflake.NewNode(0)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

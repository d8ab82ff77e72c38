package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for account
// and role keys and for the security/concurrency stamps rotated by the
// stores.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewUUID generates a random UUID, for callers keying their identity tables
// by uuid.UUID.
func NewUUID() uuid.UUID {
	return uuid.New()
}

// NewUUIDString generates a random UUID in string form.
func NewUUIDString() string {
	return uuid.NewString()
}

// NewSnowflakeID generates a snowflake ID string using the node ID from the
// environment variable SNOWFLAKE_NODE. An unset or unparsable value falls
// back to node 1.
func NewSnowflakeID() string {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		return NewSnowflakeIDWithNode(1)
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return NewSnowflakeIDWithNode(1)
	}
	return NewSnowflakeIDWithNode(nodeID)
}

// NewSnowflakeIDWithNode generates a snowflake ID string using the provided node ID.
// If the node cannot be initialized, it falls back to a KSUID string.
func NewSnowflakeIDWithNode(nodeID int64) string {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}

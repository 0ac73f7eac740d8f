package store

import (
	"fmt"
	"sync"
	"time"
)

const (
	machineIDBits = 10
	sequenceBits  = 12

	maxMachineID = (1 << machineIDBits) - 1 // 1023
	maxSequence  = (1 << sequenceBits) - 1  // 4095

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits

	// 2024-01-01T00:00:00Z in unix milliseconds.
	defaultEpoch = 1704067200000
)

// snowflake generates 64-bit message ids: 41 bits of milliseconds since
// the epoch, 10 bits of machine id, 12 bits of sequence. Within one
// generator the output is strictly increasing.
type snowflake struct {
	mu        sync.Mutex
	epoch     int64
	machineID int64
	sequence  int64
	lastTime  int64
}

func newSnowflake(machineID int64) (*snowflake, error) {
	if machineID < 0 || machineID > maxMachineID {
		return nil, fmt.Errorf("machine_id must be between 0 and %d, got %d", maxMachineID, machineID)
	}
	return &snowflake{
		epoch:     defaultEpoch,
		machineID: machineID,
	}, nil
}

func (g *snowflake) next() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.lastTime {
		return 0, fmt.Errorf("clock moved backwards: current=%d, last=%d", now, g.lastTime)
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted, wait for the next millisecond.
			for now <= g.lastTime {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	ts := now - g.epoch
	if ts < 0 {
		return 0, fmt.Errorf("current time is before epoch")
	}

	return (ts << timestampShift) | (g.machineID << machineIDShift) | g.sequence, nil
}

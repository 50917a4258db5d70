package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"shadow-mm/market"
)

// ReadSnapshots 读取连续的快照 JSON（通常每行一个）。
func ReadSnapshots(r io.Reader) ([]market.Snapshot, error) {
	dec := json.NewDecoder(r)
	var snaps []market.Snapshot
	for {
		var snap market.Snapshot
		if err := dec.Decode(&snap); err != nil {
			if errors.Is(err, io.EOF) {
				return snaps, nil
			}
			return snaps, fmt.Errorf("decode snapshot %d: %w", len(snaps), err)
		}
		snaps = append(snaps, snap)
	}
}

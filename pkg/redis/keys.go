package redis

import "fmt"

// Key construction helpers for the time-of-day agent

// SnapshotKey returns the key holding the latest evaluated sky snapshot (string, JSON)
// Pattern: timeofday:snapshot:{scene}
func SnapshotKey(scene string) string {
	return fmt.Sprintf("timeofday:snapshot:%s", scene)
}

// TransitionsKey returns the key for recent day/night transitions (list, newest first)
// Pattern: timeofday:transitions:{scene}
func TransitionsKey(scene string) string {
	return fmt.Sprintf("timeofday:transitions:%s", scene)
}

// ScenarioCatalogKey returns the key of the scenario catalog (hash, name -> JSON record)
// Pattern: timeofday:scenarios:{scene}
func ScenarioCatalogKey(scene string) string {
	return fmt.Sprintf("timeofday:scenarios:%s", scene)
}

// Package probe computes point-in-time, non-recursive directory sizes.
//
// The probe considers only the immediate regular-file children of a
// directory. It never recurses and never propagates filesystem errors:
// entries that cannot be stat'd are skipped, and a directory that cannot be
// opened contributes zero. That keeps per-event latency predictable and
// means one inaccessible path never stalls aggregation of the rest of the
// tree.
package probe

import "os"

// Dir returns the total size in bytes of the regular files directly inside
// the given directory. Symbolic links are not followed. All errors degrade
// to "contributes 0".
func Dir(path string) int64 {
	entries, err := os.ReadDir(path)
	if err != nil && entries == nil {
		return 0
	}

	var total int64
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // Entry vanished or is unreadable; skip it
		}
		total += info.Size()
	}
	return total
}

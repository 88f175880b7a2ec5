// SPDX-License-Identifier: EPL-2.0

package group

import "github.com/google/uuid"

// Catalog is the slice of the persistence collaborator the integrity
// pass needs: which tracks still exist and where their assets live.
type Catalog interface {
	TrackExists(id uuid.UUID) bool
	TrackLocation(id uuid.UUID) string
}

// ValidateIntegrity repairs groups after bulk track deletions (for
// example restoring from trash). Layers whose track no longer exists
// are dropped; a group whose base track is missing is orphaned
// entirely and its surviving layer tracks are scheduled for deletion
// too. Returns the surviving groups and the asset locations of
// everything removed, so the caller can delete the files.
//
// The existence checks run against the catalog per group, never
// against a snapshot taken before the pass started, so cascading
// removals cannot leave a dangling reference.
func ValidateIntegrity(groups []*Group, cat Catalog) (survivors []*Group, removedLocations []string) {
	survivors = make([]*Group, 0, len(groups))

	for _, g := range groups {
		if !cat.TrackExists(g.BaseTrackID) {
			// Orphaned group: base gone, layers go with it.
			for _, l := range g.Layers {
				if cat.TrackExists(l.TrackID) {
					removedLocations = append(removedLocations, cat.TrackLocation(l.TrackID))
				}
			}
			continue
		}

		kept := g.Layers[:0]
		for _, l := range g.Layers {
			if cat.TrackExists(l.TrackID) {
				kept = append(kept, l)
			}
		}
		g.Layers = kept
		g.Mix.SyncLayerCount(len(g.Layers))
		survivors = append(survivors, g)
	}

	return survivors, removedLocations
}

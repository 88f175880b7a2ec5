// SPDX-License-Identifier: EPL-2.0

package group

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soundpile/overdub/mix"
)

// MaxLayers is the hard cap on overdub layers per group.
const MaxLayers = 3

var (
	ErrLayerLimit = errors.New("group already has the maximum number of layers")
	ErrNoLayers   = errors.New("group has no layers")
)

// Layer references one overdub take: the track asset plus its time
// offset in seconds. A negative offset skips -Offset seconds into the
// file before aligning to t=0; a positive offset delays the layer's
// start by that amount.
type Layer struct {
	TrackID uuid.UUID `json:"track_id"`
	Offset  float64   `json:"offset"`
}

// Group ties a base track to its ordered overdub layers and their mix
// settings. len(Mix.Layers) tracks len(Layers) at all times.
type Group struct {
	ID          uuid.UUID    `json:"id"`
	BaseTrackID uuid.UUID    `json:"base_track_id"`
	Layers      []Layer      `json:"layers"`
	CreatedAt   time.Time    `json:"created_at"`
	Mix         mix.Settings `json:"mix"`
}

// New creates a group for a freshly recorded-over base track.
func New(baseTrackID uuid.UUID) *Group {
	return &Group{
		ID:          uuid.New(),
		BaseTrackID: baseTrackID,
		CreatedAt:   time.Now().UTC(),
		Mix:         mix.DefaultSettings(0),
	}
}

// AllTrackIDs returns the base id followed by the layer ids in
// recording order.
func (g *Group) AllTrackIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, 1+len(g.Layers))
	ids = append(ids, g.BaseTrackID)
	for _, l := range g.Layers {
		ids = append(ids, l.TrackID)
	}
	return ids
}

// AddLayer appends a new layer take. Beyond MaxLayers it is a no-op
// returning ErrLayerLimit and the group is unchanged.
func (g *Group) AddLayer(trackID uuid.UUID, offset float64) error {
	if len(g.Layers) >= MaxLayers {
		return ErrLayerLimit
	}
	g.Layers = append(g.Layers, Layer{TrackID: trackID, Offset: offset})
	g.Mix.SyncLayerCount(len(g.Layers))
	return nil
}

// RemoveLastLayer drops the most recent layer and returns its track
// id. On an empty group it returns ErrNoLayers.
func (g *Group) RemoveLastLayer() (uuid.UUID, error) {
	if len(g.Layers) == 0 {
		return uuid.Nil, ErrNoLayers
	}
	last := g.Layers[len(g.Layers)-1]
	g.Layers = g.Layers[:len(g.Layers)-1]
	g.Mix.SyncLayerCount(len(g.Layers))
	return last.TrackID, nil
}

// UpdateLayerOffset sets the time offset of the layer at index.
func (g *Group) UpdateLayerOffset(index int, offset float64) error {
	if index < 0 || index >= len(g.Layers) {
		return errors.New("layer index out of range")
	}
	g.Layers[index].Offset = offset
	return nil
}

// RoleOf reports the role trackID plays in this group.
func (g *Group) RoleOf(trackID uuid.UUID) Role {
	if trackID == g.BaseTrackID {
		return Base()
	}
	for i, l := range g.Layers {
		if l.TrackID == trackID {
			return LayerAt(i)
		}
	}
	return None()
}

// MarshalJSON keeps the mix layer count honest before encoding.
func (g *Group) MarshalJSON() ([]byte, error) {
	g.Mix.SyncLayerCount(len(g.Layers))
	type plain Group
	return json.Marshal((*plain)(g))
}

// UnmarshalJSON restores a group and re-establishes the layer-count
// invariant, padding or truncating mix strips written by older
// versions.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	if err := json.Unmarshal(data, (*plain)(g)); err != nil {
		return err
	}
	g.Mix.SyncLayerCount(len(g.Layers))
	return nil
}

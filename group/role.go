// SPDX-License-Identifier: EPL-2.0

package group

import (
	"encoding/json"
	"fmt"
)

// RoleKind discriminates the closed set of roles a track can play in
// a group.
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleBase
	RoleLayer
)

// Role is a tagged variant: None, Base, or Layer(index). It is decoded
// once at the JSON boundary and never re-interpreted from raw strings.
type Role struct {
	Kind  RoleKind
	Index int // layer index, meaningful only when Kind == RoleLayer
}

func None() Role         { return Role{Kind: RoleNone} }
func Base() Role         { return Role{Kind: RoleBase} }
func LayerAt(i int) Role { return Role{Kind: RoleLayer, Index: i} }

func (r Role) String() string {
	switch r.Kind {
	case RoleBase:
		return "base"
	case RoleLayer:
		return fmt.Sprintf("layer(%d)", r.Index)
	default:
		return "none"
	}
}

type roleJSON struct {
	Kind  string `json:"kind"`
	Index int    `json:"index,omitempty"`
}

func (r Role) MarshalJSON() ([]byte, error) {
	j := roleJSON{Index: r.Index}
	switch r.Kind {
	case RoleBase:
		j.Kind = "base"
	case RoleLayer:
		j.Kind = "layer"
	default:
		j.Kind = "none"
	}
	return json.Marshal(j)
}

// UnmarshalJSON maps unknown or absent kinds to None rather than
// failing, matching how persisted sessions written before roles
// existed decode.
func (r *Role) UnmarshalJSON(data []byte) error {
	var j roleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Kind {
	case "base":
		*r = Base()
	case "layer":
		*r = LayerAt(j.Index)
	default:
		*r = None()
	}
	return nil
}

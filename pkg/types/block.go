// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "fmt"

// Block is one cell of the block model. Blocks are never split or merged;
// every stage works on copies.
type Block struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Z      float64 `json:"z" yaml:"z"`
	Profit float64 `json:"profit" yaml:"profit"`

	// Attrs holds the remaining numeric columns of the source row.
	Attrs map[string]float64 `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// Column returns the key of the column the block belongs to.
func (b Block) Column() ColumnKey {
	return ColumnKey{X: b.X, Y: b.Y}
}

// ColumnKey identifies a column of blocks. Grid coordinates are compared
// exactly.
type ColumnKey struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Less orders column keys by X, then Y.
func (k ColumnKey) Less(o ColumnKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	return k.Y < o.Y
}

func (k ColumnKey) String() string {
	return fmt.Sprintf("(%g, %g)", k.X, k.Y)
}

// AxisNames maps the logical axes to concrete column names of the block
// table.
type AxisNames struct {
	X string `json:"x" yaml:"x"`
	Y string `json:"y" yaml:"y"`
	Z string `json:"z" yaml:"z"`
}

// Complete reports whether all three axes are bound.
func (a AxisNames) Complete() bool {
	return a.X != "" && a.Y != "" && a.Z != ""
}

// Missing returns the logical names of the unbound axes.
func (a AxisNames) Missing() []string {
	var missing []string
	if a.X == "" {
		missing = append(missing, "x")
	}
	if a.Y == "" {
		missing = append(missing, "y")
	}
	if a.Z == "" {
		missing = append(missing, "z")
	}
	return missing
}

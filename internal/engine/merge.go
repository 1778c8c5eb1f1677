package engine

// Merge concatenates geometries into one buffer. Nil and empty inputs are
// skipped and an empty list yields a valid empty geometry. Normals and uvs are
// kept only when every input carries them. Indexed inputs keep their index
// buffers (offset into the merged vertex range) when all inputs are indexed;
// otherwise they are expanded first. Bounds are always recomputed on the
// result.
func Merge(geoms []*Geometry) *Geometry {
	parts := make([]*Geometry, 0, len(geoms))
	for _, g := range geoms {
		if g != nil && !g.IsEmpty() {
			parts = append(parts, g)
		}
	}
	out := NewGeometry()
	if len(parts) == 0 {
		return out
	}

	allIndexed, anyIndexed := true, false
	withNormals, withUVs := true, true
	vertices, indices := 0, 0
	for _, g := range parts {
		allIndexed = allIndexed && g.Indexed()
		anyIndexed = anyIndexed || g.Indexed()
		withNormals = withNormals && len(g.Normals) == len(g.Positions)
		withUVs = withUVs && len(g.UVs) == 2*g.VertexCount()
	}
	if anyIndexed && !allIndexed {
		for i, g := range parts {
			if g.Indexed() {
				parts[i] = g.ToNonIndexed()
			}
		}
	}
	for _, g := range parts {
		vertices += g.VertexCount()
		indices += len(g.Indices)
	}

	out.Positions = make([]float32, 0, 3*vertices)
	if withNormals {
		out.Normals = make([]float32, 0, 3*vertices)
	}
	if withUVs {
		out.UVs = make([]float32, 0, 2*vertices)
	}
	if allIndexed {
		out.Indices = make([]uint32, 0, indices)
	}

	for _, g := range parts {
		base := uint32(out.VertexCount())
		out.Positions = append(out.Positions, g.Positions...)
		if withNormals {
			out.Normals = append(out.Normals, g.Normals...)
		}
		if withUVs {
			out.UVs = append(out.UVs, g.UVs...)
		}
		if allIndexed {
			for _, idx := range g.Indices {
				out.Indices = append(out.Indices, base+idx)
			}
		}
	}

	out.ComputeBounds()
	return out
}

// MergedBatches holds one merged geometry per role.
type MergedBatches struct {
	Map     *Geometry
	Wall    *Geometry
	Outline *Geometry
	Extrude *Geometry
}

// MergeBatches merges each role's primitives.
func MergeBatches(b Batches) MergedBatches {
	return MergedBatches{
		Map:     Merge(b.Map.Geometries()),
		Wall:    Merge(b.Wall.Geometries()),
		Outline: Merge(b.Outline.Geometries()),
		Extrude: Merge(b.Extrude.Geometries()),
	}
}

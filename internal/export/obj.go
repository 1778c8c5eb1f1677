// Package export writes assembled building models to interchange formats.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/johngerving/3D-Building-Map-sub000/internal/engine"
)

// WriteOBJ writes the visible meshes of every floor as Wavefront OBJ in
// world space. Each floor becomes a group and each mesh an object named
// floor/mesh. Faces are emitted counter-clockwise as seen from the front.
func WriteOBJ(w io.Writer, name string, floors []*engine.FloorGroup) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %s\n", name)

	// OBJ indices are 1-based and global across the file.
	next := objIndex{v: 1, vn: 1}
	for _, g := range floors {
		if !g.Visible {
			continue
		}
		fmt.Fprintf(bw, "g %s\n", g.Name)
		for _, m := range g.Meshes {
			if !m.Visible || m.Geometry.IsEmpty() {
				continue
			}
			next = writeMesh(bw, g, m, next)
		}
	}
	return bw.Flush()
}

type objIndex struct {
	v, vn int
}

func writeMesh(w *bufio.Writer, g *engine.FloorGroup, m *engine.Mesh, next objIndex) objIndex {
	geo := m.Geometry
	world := g.MeshWorldMatrix(m)
	normalMat := world.Mat3().Inv().Transpose()
	hasNormals := len(geo.Normals) == len(geo.Positions)

	fmt.Fprintf(w, "o %s/%s\n", g.Name, m.Name)
	for i := 0; i < geo.VertexCount(); i++ {
		p := world.Mul4x1(geo.Vertex(i).Vec4(1)).Vec3()
		writeVec(w, "v", p)
	}
	if hasNormals {
		for i := 0; i < geo.VertexCount(); i++ {
			n := mgl64.Vec3{
				float64(geo.Normals[3*i]),
				float64(geo.Normals[3*i+1]),
				float64(geo.Normals[3*i+2]),
			}
			n = normalMat.Mul3x1(n)
			if l := n.Len(); l > 0 {
				n = n.Mul(1 / l)
			}
			writeVec(w, "vn", n)
		}
	}

	mirrored := m.FrontFace == "cw"
	tri := func(a, b, c int) {
		if mirrored {
			b, c = c, b
		}
		if hasNormals {
			fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n",
				a+next.v, a+next.vn, b+next.v, b+next.vn, c+next.v, c+next.vn)
			return
		}
		fmt.Fprintf(w, "f %d %d %d\n", a+next.v, b+next.v, c+next.v)
	}

	if geo.Indexed() {
		for i := 0; i+2 < len(geo.Indices); i += 3 {
			tri(int(geo.Indices[i]), int(geo.Indices[i+1]), int(geo.Indices[i+2]))
		}
	} else {
		for i := 0; i+2 < geo.VertexCount(); i += 3 {
			tri(i, i+1, i+2)
		}
	}

	next.v += geo.VertexCount()
	if hasNormals {
		next.vn += geo.VertexCount()
	}
	return next
}

func writeVec(w *bufio.Writer, tag string, v mgl64.Vec3) {
	w.WriteString(tag)
	for _, c := range v {
		w.WriteByte(' ')
		w.WriteString(strconv.FormatFloat(c, 'f', 6, 64))
	}
	w.WriteByte('\n')
}

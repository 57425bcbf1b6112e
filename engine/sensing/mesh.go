package sensing

import (
	"fmt"

	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/math"
	"github.com/spaghettifunk/fusen/engine/scene"
)

// GenerateStaticMesh converts anchor geometry into a static collision shape.
// Degenerate faces are skipped; geometry without a single usable face fails
// with core.ErrGeometryConstruction.
func GenerateStaticMesh(anchor MeshAnchor) (*scene.StaticMeshShape, error) {
	g := anchor.Geometry
	if len(g.Faces) == 0 || len(g.Vertices) < 3 {
		return nil, fmt.Errorf("anchor %s has no faces: %w", anchor.ID, core.ErrGeometryConstruction)
	}

	vertexCount := uint32(len(g.Vertices))
	triangles := make([]math.Triangle, 0, len(g.Faces))
	degenerate := 0
	for i, f := range g.Faces {
		if f[0] >= vertexCount || f[1] >= vertexCount || f[2] >= vertexCount {
			return nil, fmt.Errorf("anchor %s face %d indexes past %d vertices: %w", anchor.ID, i, vertexCount, core.ErrGeometryConstruction)
		}
		tri := math.Triangle{A: g.Vertices[f[0]], B: g.Vertices[f[1]], C: g.Vertices[f[2]]}
		if tri.IsDegenerate() {
			degenerate++
			continue
		}
		triangles = append(triangles, tri)
	}
	if len(triangles) == 0 {
		return nil, fmt.Errorf("anchor %s has only degenerate faces: %w", anchor.ID, core.ErrGeometryConstruction)
	}
	if degenerate > 0 {
		core.LogDebug("anchor %s: skipped %d degenerate faces of %d", anchor.ID, degenerate, len(g.Faces))
	}

	points := make([]math.Vec3, 0, len(triangles)*3)
	for _, t := range triangles {
		points = append(points, t.A, t.B, t.C)
	}

	return &scene.StaticMeshShape{
		Triangles: triangles,
		Extents:   math.ExtentsFromPoints(points),
	}, nil
}

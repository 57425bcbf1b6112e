package sensing

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/fusen/engine/math"
)

// AnchorFile is the on-disk TOML form of a mesh anchor used by DirectoryProvider.
//
//	id = "0b4f..."            # optional, derived from the file path when empty
//	[transform]
//	position = [0.0, 0.0, -1.0]
//	rotation = [0.0, 0.0, 0.0, 1.0]
//	scale    = [1.0, 1.0, 1.0]
//	[geometry]
//	vertices = [[-1.0, 0.0, -1.0], [1.0, 0.0, -1.0], [0.0, 0.0, 1.0]]
//	faces    = [[0, 1, 2]]
type AnchorFile struct {
	ID        string              `toml:"id,omitempty"`
	Transform AnchorFileTransform `toml:"transform"`
	Geometry  AnchorFileGeometry  `toml:"geometry"`
}

type AnchorFileTransform struct {
	Position []float32 `toml:"position"`
	Rotation []float32 `toml:"rotation,omitempty"`
	Scale    []float32 `toml:"scale,omitempty"`
}

type AnchorFileGeometry struct {
	Vertices [][]float32 `toml:"vertices"`
	Faces    [][]uint32  `toml:"faces"`
}

// anchorIDForPath keeps ids stable for files that do not carry one.
func anchorIDForPath(path string) uuid.UUID {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+abs))
}

// ReadAnchorFile parses a single anchor file.
func ReadAnchorFile(path string) (MeshAnchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MeshAnchor{}, err
	}
	var f AnchorFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return MeshAnchor{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	anchor, err := f.toAnchor()
	if err != nil {
		return MeshAnchor{}, fmt.Errorf("%s: %w", path, err)
	}
	if anchor.ID == uuid.Nil {
		anchor.ID = anchorIDForPath(path)
	}
	return anchor, nil
}

// WriteAnchorFile stores anchor at path in the AnchorFile format.
func WriteAnchorFile(path string, anchor MeshAnchor) error {
	data, err := toml.Marshal(newAnchorFile(anchor))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func newAnchorFile(a MeshAnchor) AnchorFile {
	t := a.OriginFromAnchorTransform
	f := AnchorFile{
		Transform: AnchorFileTransform{
			Position: []float32{t.Position.X, t.Position.Y, t.Position.Z},
			Rotation: []float32{t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W},
			Scale:    []float32{t.Scale.X, t.Scale.Y, t.Scale.Z},
		},
	}
	if a.ID != uuid.Nil {
		f.ID = a.ID.String()
	}
	for _, v := range a.Geometry.Vertices {
		f.Geometry.Vertices = append(f.Geometry.Vertices, []float32{v.X, v.Y, v.Z})
	}
	for _, face := range a.Geometry.Faces {
		f.Geometry.Faces = append(f.Geometry.Faces, []uint32{face[0], face[1], face[2]})
	}
	return f
}

func (f AnchorFile) toAnchor() (MeshAnchor, error) {
	var anchor MeshAnchor
	if f.ID != "" {
		id, err := uuid.Parse(f.ID)
		if err != nil {
			return anchor, fmt.Errorf("invalid anchor id %q: %w", f.ID, err)
		}
		anchor.ID = id
	}

	t := math.TransformCreate()
	switch len(f.Transform.Position) {
	case 0:
	case 3:
		t.Position = math.NewVec3(f.Transform.Position[0], f.Transform.Position[1], f.Transform.Position[2])
	default:
		return anchor, fmt.Errorf("transform.position needs 3 components, got %d", len(f.Transform.Position))
	}
	switch len(f.Transform.Rotation) {
	case 0:
	case 4:
		r := f.Transform.Rotation
		t.Rotation = math.Quaternion{X: r[0], Y: r[1], Z: r[2], W: r[3]}.Normalize()
	default:
		return anchor, fmt.Errorf("transform.rotation needs 4 components, got %d", len(f.Transform.Rotation))
	}
	switch len(f.Transform.Scale) {
	case 0:
	case 3:
		t.Scale = math.NewVec3(f.Transform.Scale[0], f.Transform.Scale[1], f.Transform.Scale[2])
	default:
		return anchor, fmt.Errorf("transform.scale needs 3 components, got %d", len(f.Transform.Scale))
	}
	anchor.OriginFromAnchorTransform = t

	for i, v := range f.Geometry.Vertices {
		if len(v) != 3 {
			return anchor, fmt.Errorf("geometry.vertices[%d] needs 3 components, got %d", i, len(v))
		}
		anchor.Geometry.Vertices = append(anchor.Geometry.Vertices, math.NewVec3(v[0], v[1], v[2]))
	}
	for i, face := range f.Geometry.Faces {
		if len(face) != 3 {
			return anchor, fmt.Errorf("geometry.faces[%d] needs 3 indices, got %d", i, len(face))
		}
		anchor.Geometry.Faces = append(anchor.Geometry.Faces, [3]uint32{face[0], face[1], face[2]})
	}
	return anchor, nil
}

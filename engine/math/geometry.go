package math

// GeometryInterleave flattens vertices into the x, y, z, u, v layout the
// mesh handle uploads.
func GeometryInterleave(vertices []Vertex3D) []float32 {
	out := make([]float32, 0, len(vertices)*VertexComponents)
	for _, v := range vertices {
		out = append(out, v.Position.X, v.Position.Y, v.Position.Z, v.Texcoord.X, v.Texcoord.Y)
	}
	return out
}

// GeometryDeinterleave is the inverse of GeometryInterleave. Trailing values
// that do not make up a whole vertex are ignored.
func GeometryDeinterleave(data []float32) []Vertex3D {
	count := len(data) / VertexComponents
	out := make([]Vertex3D, count)
	for i := 0; i < count; i++ {
		d := data[i*VertexComponents : (i+1)*VertexComponents]
		out[i] = Vertex3D{
			Position: Vec3{X: d[0], Y: d[1], Z: d[2]},
			Texcoord: Vec2{X: d[3], Y: d[4]},
		}
	}
	return out
}

// GeometryCalculateExtents returns the axis-aligned bounds of the vertices
// and their center. An empty slice yields zero extents.
func GeometryCalculateExtents(vertices []Vertex3D) (Extents3D, Vec3) {
	if len(vertices) == 0 {
		return Extents3D{}, Vec3{}
	}
	ext := Extents3D{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		p := v.Position
		ext.Min = Vec3{X: Min(ext.Min.X, p.X), Y: Min(ext.Min.Y, p.Y), Z: Min(ext.Min.Z, p.Z)}
		ext.Max = Vec3{X: Max(ext.Max.X, p.X), Y: Max(ext.Max.Y, p.Y), Z: Max(ext.Max.Z, p.Z)}
	}
	center := ext.Min.Add(ext.Max).MulScalar(0.5)
	return ext, center
}

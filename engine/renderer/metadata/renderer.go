package metadata

// RenderPacket carries what one frame draws.
type RenderPacket struct {
	DeltaTime  float64
	Geometries []*Geometry
}

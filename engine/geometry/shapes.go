package geometry

// shapeColor is the flat vertex color of the built-in shapes.
var shapeColor = [3]float32{0.4, 0.2, 0.5}

// Plane returns a 2x2 quad centered on the origin in the z = 0 plane, with texture
// coordinates covering [0, 1] and v growing downward.
func Plane() []Vertex {
	return []Vertex{
		{Position: [3]float32{1, 1, 0}, Color: shapeColor, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{-1, 1, 0}, Color: shapeColor, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{-1, -1, 0}, Color: shapeColor, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{1, -1, 0}, Color: shapeColor, TexCoord: [2]float32{1, 1}},
	}
}

// PlaneIndices returns the two counter-clockwise triangles of Plane.
func PlaneIndices() []uint16 {
	return []uint16{0, 1, 2, 0, 2, 3}
}

// Triangle returns a single triangle of height 1 centered on the origin.
func Triangle() []Vertex {
	return []Vertex{
		{Position: [3]float32{0, 0.5, 0}, Color: shapeColor, TexCoord: [2]float32{0.5, 0}},
		{Position: [3]float32{-0.5, -0.5, 0}, Color: shapeColor, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{0.5, -0.5, 0}, Color: shapeColor, TexCoord: [2]float32{1, 1}},
	}
}

// TriangleIndices returns the counter-clockwise index list of Triangle.
func TriangleIndices() []uint16 {
	return []uint16{0, 1, 2}
}

// ScreenRect returns a quad covering the pixel rectangle (x, y, w, h), measured from the
// top-left corner of a surfaceW x surfaceH surface, in clip-space coordinates. It uses the
// winding and index order of Plane and white vertex color.
//
// Parameters:
//   - x, y: top-left corner in pixels
//   - w, h: size in pixels
//   - surfaceW, surfaceH: surface size in pixels
//
// Returns:
//   - []Vertex: four clip-space vertices
func ScreenRect(x, y, w, h, surfaceW, surfaceH float32) []Vertex {
	left := x/surfaceW*2 - 1
	right := (x+w)/surfaceW*2 - 1
	top := 1 - y/surfaceH*2
	bottom := 1 - (y+h)/surfaceH*2
	white := [3]float32{1, 1, 1}
	return []Vertex{
		{Position: [3]float32{right, top, 0}, Color: white, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{left, top, 0}, Color: white, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{left, bottom, 0}, Color: white, TexCoord: [2]float32{0, 1}},
		{Position: [3]float32{right, bottom, 0}, Color: white, TexCoord: [2]float32{1, 1}},
	}
}

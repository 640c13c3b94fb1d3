package mesh

// ZUpToYUp rewrites xyz triples from Blender's Z-up frame to a Y-up frame in
// place: y becomes the old z and z becomes the old -y.
//
// A trailing partial triple is left alone.
func ZUpToYUp(data []float32) {
	for i := 0; i+2 < len(data); i += 3 {
		y := data[i+1]
		data[i+1] = data[i+2]
		data[i+2] = -y
	}
}

// YUp converts positions and normals to a Y-up coordinate system.
//
// @see https://gamedev.stackexchange.com/a/7932
func (m *Mesh) YUp() {
	ZUpToYUp(m.Positions.data)
	ZUpToYUp(m.Normals.data)
}

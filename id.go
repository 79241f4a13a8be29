package cluster

// Cluster ids pack the position of the node that triggered the merge and the
// zoom slot that position refers to, offset by the number of source features
// so they never collide with source positions:
//
//	id = position<<5 + (zoom + 1) + numSources
//
// The low five bits hold zoom+1, which is why zoom levels stop at MaxZoomLimit.
const zoomBits = 5

func encodeID(position, zoom, numSources int) int {
	return position<<zoomBits + (zoom + 1) + numSources
}

// decodeID returns the position and the zoom slot (zoom+1 of the level the
// cluster was created at) encoded in id.
func decodeID(id, numSources int) (position, originZoom int) {
	v := id - numSources
	return v >> zoomBits, v % (1 << zoomBits)
}

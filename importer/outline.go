package importer

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// loadOutline reads target outline points from a GeoJSON file. Both a
// FeatureCollection (first feature with usable geometry wins) and a bare
// geometry document are accepted. Coordinates are taken verbatim and must
// already be in the placement unit.
func loadOutline(path string) ([]orb.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read outline file: %w", err)
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil {
		for _, f := range fc.Features {
			if pts := geometryPoints(f.Geometry); len(pts) > 0 {
				return pts, nil
			}
		}
		return nil, fmt.Errorf("no usable geometry in outline file (%s)", path)
	}

	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("unable to parse outline file (%s): %w", path, err)
	}
	pts := geometryPoints(g.Geometry())
	if len(pts) == 0 {
		return nil, fmt.Errorf("no usable geometry in outline file (%s)", path)
	}
	return pts, nil
}

// geometryPoints extracts the point cloud the alignment hull is built from.
// For polygons only the outer ring matters, holes cannot affect the hull.
func geometryPoints(g orb.Geometry) []orb.Point {
	switch t := g.(type) {
	case orb.Polygon:
		if len(t) > 0 {
			return ringPoints(t[0])
		}
	case orb.MultiPolygon:
		if len(t) > 0 && len(t[0]) > 0 {
			return ringPoints(t[0][0])
		}
	case orb.LineString:
		return []orb.Point(t)
	case orb.MultiPoint:
		return []orb.Point(t)
	}
	return nil
}

func ringPoints(r orb.Ring) []orb.Point {
	pts := []orb.Point(r)
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

package gpx

import (
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tracklab/trackheat/internal/models"
)

// gpxFile mirrors the subset of the GPX 1.1 schema the renderer needs:
// track points with position and time, across all segments.
type gpxFile struct {
	XMLName xml.Name   `xml:"gpx"`
	Tracks  []gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name     string       `xml:"name"`
	Segments []gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
}

// GPXSource decodes GPX 1.0/1.1 files.
type GPXSource struct{}

// Name identifies the format.
func (GPXSource) Name() string { return "gpx" }

// Decode parses the file and flattens all segments of the first track
// into one point sequence. Files with more than one track are logged and
// only the first is used; files with no usable points are a decode error.
func (GPXSource) Decode(path string) (*models.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var doc gpxFile
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse gpx %s: %w", path, err)
	}

	if len(doc.Tracks) == 0 {
		return nil, fmt.Errorf("no tracks in %s", path)
	}
	if len(doc.Tracks) > 1 {
		log.Printf("[GPX] %s has %d tracks, using first", path, len(doc.Tracks))
	}

	src := doc.Tracks[0]
	track := &models.Track{
		Name:   src.Name,
		Source: path,
	}
	if track.Name == "" {
		track.Name = "Untitled"
	}

	for _, seg := range src.Segments {
		for _, p := range seg.Points {
			pt := models.GeoPoint{Latitude: p.Lat, Longitude: p.Lon}
			if p.Time != "" {
				ts, err := time.Parse(time.RFC3339, p.Time)
				if err != nil {
					return nil, fmt.Errorf("bad timestamp %q in %s: %w", p.Time, path, err)
				}
				pt.Timestamp = ts
			}
			track.Points = append(track.Points, pt)
		}
	}

	if len(track.Points) == 0 {
		return nil, fmt.Errorf("no track points in %s", path)
	}
	return track, nil
}

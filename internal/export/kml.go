package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/twpayne/go-kml/v2"

	"enforcement-analytics/internal/analytics"
	"enforcement-analytics/internal/domain/event"
)

// WriteHotspotsKML renders a hotspot ranking as map placemarks. Sites that
// carry no coordinates of their own are placed at their district centroid so
// every hotspot shows up on the overlay.
func WriteHotspotsKML(w io.Writer, name string, sites []analytics.RankedSite) error {
	style := kml.SharedStyle("hotspot",
		kml.IconStyle(
			kml.Color(color.RGBA{R: 0xE5, G: 0x39, B: 0x35, A: 0xFF}),
			kml.Scale(1.2),
			kml.Icon(kml.Href("http://maps.google.com/mapfiles/kml/paddle/red-circle.png")),
		),
	)

	children := []kml.Element{kml.Name(name), style}
	for _, s := range sites {
		lat, lng := placemarkCoords(s)
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("%d. %s", s.Rank, s.Site.Name)),
			kml.Description(describeSite(s)),
			kml.StyleURL(style.URL()),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: lng, Lat: lat})),
		))
	}

	return kml.KML(kml.Document(children...)).WriteIndent(w, "", "  ")
}

func placemarkCoords(s analytics.RankedSite) (lat, lng float64) {
	if s.Site.Lat != nil && s.Site.Lng != nil {
		return *s.Site.Lat, *s.Site.Lng
	}
	c := event.DistrictCentroid(s.Site.District)
	return c.Lat, c.Lng
}

func describeSite(s analytics.RankedSite) string {
	desc := fmt.Sprintf("%s｜事故 %d 件（A1 %d、A2 %d、A3 %d）｜違規 %d 件",
		s.Site.District, s.CrashCount, s.CrashA1, s.CrashA2, s.CrashA3, s.TicketCount)
	if s.TrendPct != nil {
		desc += fmt.Sprintf("｜趨勢 %+.1f%%", *s.TrendPct)
	}
	return desc
}

package event

// Centroid is an approximate district center, used as the map fallback for
// records that carry no coordinates of their own.
type Centroid struct {
	Lat float64
	Lng float64
}

// districtCentroids covers the 37 administrative districts of Tainan plus
// the "市"-prefixed spellings that appear in some source files.
var districtCentroids = map[string]Centroid{
	"新化區":  {23.0386, 120.3108},
	"山上區":  {23.0975, 120.3547},
	"左鎮區":  {23.0578, 120.4014},
	"玉井區":  {23.1239, 120.4614},
	"楠西區":  {23.1814, 120.4853},
	"南化區":  {23.1417, 120.4731},
	"仁德區":  {22.9722, 120.2331},
	"歸仁區":  {22.9667, 120.2933},
	"關廟區":  {22.9617, 120.3278},
	"龍崎區":  {22.9622, 120.3847},
	"永康區":  {23.0264, 120.2567},
	"東區":   {22.9833, 120.2167},
	"南區":   {22.9500, 120.1833},
	"北區":   {23.0000, 120.2000},
	"中西區":  {22.9917, 120.1917},
	"安南區":  {23.0500, 120.1667},
	"安平區":  {22.9917, 120.1667},
	"新營區":  {23.3103, 120.3167},
	"鹽水區":  {23.3203, 120.2661},
	"白河區":  {23.3517, 120.4156},
	"柳營區":  {23.2778, 120.3114},
	"後壁區":  {23.3664, 120.3583},
	"東山區":  {23.3258, 120.4036},
	"麻豆區":  {23.1817, 120.2483},
	"下營區":  {23.2347, 120.2647},
	"六甲區":  {23.2319, 120.3478},
	"官田區":  {23.1942, 120.3142},
	"大內區":  {23.1203, 120.3497},
	"佳里區":  {23.1647, 120.1772},
	"學甲區":  {23.2328, 120.1803},
	"西港區":  {23.1233, 120.2033},
	"七股區":  {23.1453, 120.1314},
	"將軍區":  {23.2000, 120.1500},
	"北門區":  {23.2672, 120.1256},
	"新市區":  {23.0786, 120.2919},
	"善化區":  {23.1336, 120.2964},
	"安定區":  {23.1017, 120.2364},
	"市新化區": {23.0386, 120.3108},
	"市山上區": {23.0975, 120.3547},
	"市左鎮區": {23.0578, 120.4014},
}

var defaultCentroid = Centroid{23.0, 120.2}

// DistrictCentroid returns the approximate center of a district, falling back
// to the city-wide default for unknown names.
func DistrictCentroid(district string) Centroid {
	if c, ok := districtCentroids[district]; ok {
		return c
	}
	return defaultCentroid
}

// KnownDistrict reports whether the district name is in the centroid table.
func KnownDistrict(district string) bool {
	_, ok := districtCentroids[district]
	return ok
}

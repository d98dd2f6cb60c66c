package report

import "strings"

// defaultLongitude меридиан поясного времени Китая (UTC+8)
const defaultLongitude = 120.0

type longitudeEntry struct {
	Name      string
	Longitude float64
}

// cityLongitudes долготы для поправки солнечного времени.
// Порядок важен: сначала города (более точное совпадение),
// затем провинции; берётся первое вхождение подстроки.
var cityLongitudes = []longitudeEntry{
	{"北京", 116.40},
	{"上海", 121.47},
	{"天津", 117.20},
	{"重庆", 106.55},
	{"广州", 113.26},
	{"深圳", 114.06},
	{"成都", 104.07},
	{"武汉", 114.31},
	{"西安", 108.95},
	{"杭州", 120.16},
	{"南京", 118.78},
	{"沈阳", 123.43},
	{"哈尔滨", 126.63},
	{"长春", 125.32},
	{"石家庄", 114.48},
	{"太原", 112.53},
	{"郑州", 113.65},
	{"济南", 117.00},
	{"青岛", 120.38},
	{"合肥", 117.27},
	{"福州", 119.30},
	{"厦门", 118.10},
	{"南昌", 115.89},
	{"长沙", 112.94},
	{"南宁", 108.33},
	{"海口", 110.35},
	{"贵阳", 106.71},
	{"昆明", 102.73},
	{"拉萨", 91.11},
	{"兰州", 103.73},
	{"西宁", 101.74},
	{"银川", 106.27},
	{"乌鲁木齐", 87.68},
	{"呼和浩特", 111.65},
	{"香港", 114.17},
	{"澳门", 113.54},
	{"台北", 121.56},
	// провинции (административный центр)
	{"河北", 114.48},
	{"山西", 112.53},
	{"辽宁", 123.43},
	{"吉林", 125.32},
	{"黑龙江", 126.63},
	{"江苏", 118.78},
	{"浙江", 120.16},
	{"安徽", 117.27},
	{"福建", 119.30},
	{"江西", 115.89},
	{"山东", 117.00},
	{"河南", 113.65},
	{"湖北", 114.31},
	{"湖南", 112.94},
	{"广东", 113.26},
	{"广西", 108.33},
	{"海南", 110.35},
	{"四川", 104.07},
	{"贵州", 106.71},
	{"云南", 102.73},
	{"西藏", 91.11},
	{"陕西", 108.95},
	{"甘肃", 103.73},
	{"青海", 101.74},
	{"宁夏", 106.27},
	{"新疆", 87.68},
	{"内蒙古", 111.65},
	{"台湾", 121.56},
}

// resolveLongitude подбирает долготу по месту рождения, иначе 120°E
func resolveLongitude(location string) float64 {
	location = strings.TrimSpace(location)
	if location == "" {
		return defaultLongitude
	}
	for _, entry := range cityLongitudes {
		if strings.Contains(location, entry.Name) {
			return entry.Longitude
		}
	}
	return defaultLongitude
}

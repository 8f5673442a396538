package region

import "storybook/backend/internal/models"

// Category is a story region category and the cities filed under it.
type Category struct {
	Name   string
	Cities []string
}

var defaultCatalogue = []Category{
	{"수도권", []string{"서울", "인천", "수원", "고양", "용인", "성남", "가평", "파주"}},
	{"강원", []string{"춘천", "강릉", "속초", "양양", "평창", "원주"}},
	{"충청", []string{"대전", "세종", "청주", "천안", "공주", "단양", "태안"}},
	{"전라", []string{"광주", "전주", "여수", "순천", "목포", "군산"}},
	{"경상", []string{"부산", "대구", "울산", "경주", "포항", "안동", "통영", "거제"}},
	{"제주", []string{"제주시", "서귀포"}},
}

// DefaultRegions builds one region per city. The category is stored as the
// city and the city as the district.
func DefaultRegions() []models.Region {
	var out []models.Region
	for _, c := range defaultCatalogue {
		for _, city := range c.Cities {
			district := city
			out = append(out, models.Region{
				RegionName: c.Name + " - " + city,
				City:       c.Name,
				District:   &district,
			})
		}
	}
	return out
}

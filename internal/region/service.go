// Package region serves the region catalogue and the map view.
package region

import (
	"context"
	"strings"

	"storybook/backend/internal/config"
	"storybook/backend/internal/models"
	"storybook/backend/internal/storage"

	"go.uber.org/zap"
)

const popularCategoryCount = 3

type Service struct {
	store  storage.RegionStore
	logger *zap.Logger
}

func NewService(store storage.RegionStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

type List struct {
	Regions []models.Region `json:"regions"`
	Total   int             `json:"total"`
}

// MapEntry is a region with coordinates and its most used story categories.
type MapEntry struct {
	ID                string   `json:"id"`
	City              string   `json:"city"`
	District          *string  `json:"district"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	StoryCount        int      `json:"story_count"`
	PopularCategories []string `json:"popular_categories"`
}

func (s *Service) List(ctx context.Context, search string) (*List, error) {
	regions, err := s.store.ListRegions(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, err
	}
	if regions == nil {
		regions = []models.Region{}
	}
	return &List{Regions: regions, Total: len(regions)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Region, error) {
	return s.store.GetRegion(ctx, id)
}

// Map lists the regions that have coordinates. Seeded regions keep the story
// category in City and the city in District, which is how stories are tagged.
func (s *Service) Map(ctx context.Context) ([]MapEntry, error) {
	regions, err := s.store.ListMappedRegions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MapEntry, 0, len(regions))
	for _, r := range regions {
		district := ""
		if r.District != nil {
			district = *r.District
		}
		cats, err := s.store.PopularCategories(ctx, r.City, district, popularCategoryCount)
		if err != nil {
			return nil, err
		}
		out = append(out, MapEntry{
			ID:                r.ID,
			City:              r.City,
			District:          r.District,
			Latitude:          *r.Latitude,
			Longitude:         *r.Longitude,
			StoryCount:        r.StoryCount,
			PopularCategories: cats,
		})
	}
	return out, nil
}

// SearchByName resolves a city name, short or official, and an optional
// district to the matching regions.
func (s *Service) SearchByName(ctx context.Context, city, district string) ([]models.Region, error) {
	q := ResolveCity(strings.TrimSpace(city))
	q.District = strings.TrimSpace(district)
	regions, err := s.store.FindRegions(ctx, q)
	if err != nil {
		return nil, err
	}
	if regions == nil {
		regions = []models.Region{}
	}
	return regions, nil
}

// ResolveCity maps a short city name to its official name. A name that is
// neither an alias nor ends in 시 or 도 is matched loosely.
func ResolveCity(city string) storage.RegionQuery {
	if official, ok := config.CityAliases[city]; ok {
		return storage.RegionQuery{City: official}
	}
	if strings.HasSuffix(city, "시") || strings.HasSuffix(city, "도") {
		return storage.RegionQuery{City: city}
	}
	return storage.RegionQuery{City: city, Fuzzy: true}
}

// Seed replaces the region table with the default catalogue and returns
// the number of rows written.
func (s *Service) Seed(ctx context.Context) (int, error) {
	regions := DefaultRegions()
	if err := s.store.ReplaceRegions(ctx, regions); err != nil {
		return 0, err
	}
	s.logger.Info("regions seeded", zap.Int("count", len(regions)))
	return len(regions), nil
}

package storage

import (
	"context"

	"storybook/backend/internal/models"

	"gorm.io/gorm"
)

// RegionQuery drives FindRegions. With Fuzzy set, City matches as a city
// substring or an exact district; otherwise City must equal the city.
type RegionQuery struct {
	City     string
	Fuzzy    bool
	District string
}

func (s *Service) ListRegions(ctx context.Context, search string) ([]models.Region, error) {
	q := s.DB.WithContext(ctx).Model(&models.Region{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("city LIKE ? OR district LIKE ? OR region_name LIKE ?", like, like, like)
	}
	var out []models.Region
	err := q.Order("story_count DESC, city, district").Find(&out).Error
	return out, err
}

// ListMappedRegions returns the regions that have coordinates.
func (s *Service) ListMappedRegions(ctx context.Context) ([]models.Region, error) {
	var out []models.Region
	err := s.DB.WithContext(ctx).
		Where("latitude IS NOT NULL AND longitude IS NOT NULL").
		Order("story_count DESC, city, district").
		Find(&out).Error
	return out, err
}

func (s *Service) GetRegion(ctx context.Context, id string) (*models.Region, error) {
	var r models.Region
	if err := s.DB.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Region not found")
	}
	return &r, nil
}

func (s *Service) FindRegions(ctx context.Context, rq RegionQuery) ([]models.Region, error) {
	q := s.DB.WithContext(ctx).Model(&models.Region{})
	if rq.Fuzzy {
		q = q.Where("city LIKE ? OR district = ?", "%"+rq.City+"%", rq.City)
	} else {
		q = q.Where("city = ?", rq.City)
	}
	if rq.District != "" {
		q = q.Where("district = ?", rq.District)
	}
	var out []models.Region
	err := q.Order("city, district").Find(&out).Error
	return out, err
}

// PopularCategories returns up to n of the most used story categories among
// active stories in the given region category and city.
func (s *Service) PopularCategories(ctx context.Context, category, city string, n int) ([]string, error) {
	var rows []struct {
		Category string
		Count    int64
	}
	q := s.DB.WithContext(ctx).Model(&models.Story{}).
		Select("category, COUNT(*) AS count").
		Where("is_active = ? AND category IS NOT NULL AND category <> ''", true).
		Where("region_id1 = ?", category)
	if city != "" {
		q = q.Where("region_id2 = ?", city)
	}
	err := q.Group("category").Order("count DESC, category").Limit(n).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Category)
	}
	return out, nil
}

// ReplaceRegions swaps the whole region table for regions.
func (s *Service) ReplaceRegions(ctx context.Context, regions []models.Region) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Region{}).Error; err != nil {
			return err
		}
		if len(regions) == 0 {
			return nil
		}
		return tx.CreateInBatches(regions, 100).Error
	})
}

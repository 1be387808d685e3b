package services

import (
	"github.com/landmarks/backend/internal/models"
	"gorm.io/gorm"
)

type RatingService struct {
	DB *gorm.DB
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{DB: db}
}

type RatingSummary struct {
	LandmarkID    uint
	AverageRating float64
	ReviewCount   int64
}

// SummaryFor aggregates review ratings for the given landmarks in one
// query. Landmarks without reviews are simply absent from the result;
// callers treat that as average 0.
func (s *RatingService) SummaryFor(landmarkIDs []uint) (map[uint]RatingSummary, error) {
	summaries := map[uint]RatingSummary{}
	if len(landmarkIDs) == 0 {
		return summaries, nil
	}

	var rows []struct {
		LandmarkID    uint
		AverageRating float64
		ReviewCount   int64
	}

	err := s.DB.Model(&models.Review{}).
		Select("landmark_id, AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Where("landmark_id IN ?", landmarkIDs).
		Group("landmark_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		summaries[row.LandmarkID] = RatingSummary{
			LandmarkID:    row.LandmarkID,
			AverageRating: row.AverageRating,
			ReviewCount:   row.ReviewCount,
		}
	}

	return summaries, nil
}

// Summary returns the average rating and review count for one landmark.
// An empty review set yields 0, never an error.
func (s *RatingService) Summary(landmarkID uint) (float64, int64, error) {
	summaries, err := s.SummaryFor([]uint{landmarkID})
	if err != nil {
		return 0, 0, err
	}
	summary := summaries[landmarkID]
	return summary.AverageRating, summary.ReviewCount, nil
}

// Annotate fills the computed rating fields on the given landmarks.
func (s *RatingService) Annotate(landmarks []models.Landmark) error {
	ids := make([]uint, 0, len(landmarks))
	for _, landmark := range landmarks {
		ids = append(ids, landmark.ID)
	}

	summaries, err := s.SummaryFor(ids)
	if err != nil {
		return err
	}

	for i := range landmarks {
		if summary, ok := summaries[landmarks[i].ID]; ok {
			landmarks[i].AverageRating = summary.AverageRating
			landmarks[i].ReviewCount = summary.ReviewCount
		}
	}
	return nil
}

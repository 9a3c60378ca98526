package postgres

import (
	"context"
	"strings"

	"moviedb/movie"

	"gorm.io/gorm"
)

// BasicsModel is a row of the IMDB basics table. Ratings are kept as text
// because the dataset mixes numbers with placeholders such as "N/A".
type BasicsModel struct {
	Tconst               string `gorm:"primaryKey"`
	PrimaryTitle         string `gorm:"not null"`
	Year                 *int
	RuntimeMinutes       *int
	Genres               *string
	Country              *string
	Boxoffice            *string
	Poster               *string
	Plot                 *string
	ImdbRating           *string
	RottenTomatoesRating *string
	MetacriticRating     *string
	Rated                *string
}

func (BasicsModel) TableName() string {
	return "basics"
}

type PrincipalModel struct {
	ID         uint   `gorm:"primaryKey"`
	Tconst     string `gorm:"not null;index;uniqueIndex:idx_principals_tconst_ordering"`
	Ordering   int    `gorm:"not null;uniqueIndex:idx_principals_tconst_ordering"`
	Nconst     string `gorm:"not null;index"`
	Category   string
	Job        *string
	Characters *string
	Name       string
}

func (PrincipalModel) TableName() string {
	return "principals"
}

type NameModel struct {
	Nconst      string `gorm:"primaryKey"`
	PrimaryName string `gorm:"not null"`
	BirthYear   *int
	DeathYear   *int
}

func (NameModel) TableName() string {
	return "names"
}

// MovieRepository implements movie.Repository over the basics and
// principals tables.
type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) filtered(ctx context.Context, f movie.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&BasicsModel{})
	if f.Title != "" {
		q = q.Where("LOWER(primary_title) LIKE ?", "%"+strings.ToLower(f.Title)+"%")
	}
	if f.Year != "" {
		q = q.Where("CAST(year AS TEXT) LIKE ?", "%"+f.Year+"%")
	}
	return q
}

func (r *MovieRepository) Count(ctx context.Context, f movie.Filter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *MovieRepository) Search(ctx context.Context, f movie.Filter) ([]movie.Record, error) {
	var models []BasicsModel
	err := r.filtered(ctx, f).
		Order("tconst").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]movie.Record, len(models))
	for i, m := range models {
		records[i] = toMovieRecord(m)
	}
	return records, nil
}

type creditScan struct {
	BasicsModel
	Nconst     string
	Category   string
	Name       string
	Characters *string
}

func (r *MovieRepository) Credits(ctx context.Context, imdbID string) ([]movie.CreditRow, error) {
	var rows []creditScan
	err := r.db.WithContext(ctx).
		Table("basics AS b").
		Select("b.*, p.nconst, p.category, p.name, p.characters").
		Joins("JOIN principals AS p ON p.tconst = b.tconst").
		Where("b.tconst = ?", imdbID).
		Order("p.ordering").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	credits := make([]movie.CreditRow, len(rows))
	for i, row := range rows {
		credits[i] = movie.CreditRow{
			Record:     toMovieRecord(row.BasicsModel),
			PersonID:   row.Nconst,
			Category:   row.Category,
			Name:       row.Name,
			Characters: deref(row.Characters),
		}
	}
	return credits, nil
}

func toMovieRecord(m BasicsModel) movie.Record {
	return movie.Record{
		ImdbID:               m.Tconst,
		Title:                m.PrimaryTitle,
		Year:                 m.Year,
		Runtime:              m.RuntimeMinutes,
		Genres:               m.Genres,
		Country:              m.Country,
		Boxoffice:            m.Boxoffice,
		Poster:               m.Poster,
		Plot:                 m.Plot,
		ImdbRating:           m.ImdbRating,
		RottenTomatoesRating: m.RottenTomatoesRating,
		MetacriticRating:     m.MetacriticRating,
		Classification:       m.Rated,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package postgres

import (
	"context"

	"moviedb/person"

	"gorm.io/gorm"
)

// PersonRepository implements person.Repository.
type PersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

type roleScan struct {
	Nconst       string
	PrimaryName  string
	BirthYear    *int
	DeathYear    *int
	PrimaryTitle string
	Tconst       string
	Category     string
	Characters   *string
	ImdbRating   *string
}

func (r *PersonRepository) Roles(ctx context.Context, id string) ([]person.RoleRow, error) {
	var rows []roleScan
	err := r.db.WithContext(ctx).
		Table("names AS n").
		Select("n.nconst, n.primary_name, n.birth_year, n.death_year, b.primary_title, b.tconst, p.category, p.characters, b.imdb_rating").
		Joins("JOIN principals AS p ON p.nconst = n.nconst").
		Joins("JOIN basics AS b ON b.tconst = p.tconst").
		Where("n.nconst = ?", id).
		Order("b.tconst").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	roles := make([]person.RoleRow, len(rows))
	for i, row := range rows {
		roles[i] = person.RoleRow{
			PersonID:   row.Nconst,
			Name:       row.PrimaryName,
			BirthYear:  row.BirthYear,
			DeathYear:  row.DeathYear,
			MovieName:  row.PrimaryTitle,
			MovieID:    row.Tconst,
			Category:   row.Category,
			Characters: deref(row.Characters),
			ImdbRating: row.ImdbRating,
		}
	}
	return roles, nil
}

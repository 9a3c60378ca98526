package person

import (
	"moviedb/errs"
	"moviedb/movie"
)

var ErrNotFound = errs.Errorf(errs.ENOTFOUND, "No record exists of a person with this ID")

// RoleRow is one names x principals x basics join row.
type RoleRow struct {
	PersonID   string
	Name       string
	BirthYear  *int
	DeathYear  *int
	MovieName  string
	MovieID    string
	Category   string
	Characters string
	ImdbRating *string
}

type Role struct {
	MovieName  string   `json:"movieName"`
	MovieID    string   `json:"movieId"`
	Category   string   `json:"category"`
	Characters []string `json:"characters"`
	ImdbRating *float64 `json:"imdbRating"`
}

type Person struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	BirthYear *int   `json:"birthYear"`
	DeathYear *int   `json:"deathYear"`
	Roles     []Role `json:"roles"`
}

// NewPerson folds the join rows of one person. rows must not be empty.
func NewPerson(rows []RoleRow) Person {
	first := rows[0]
	p := Person{
		ID:        first.PersonID,
		Name:      first.Name,
		BirthYear: first.BirthYear,
		DeathYear: first.DeathYear,
		Roles:     make([]Role, 0, len(rows)),
	}
	for _, row := range rows {
		p.Roles = append(p.Roles, Role{
			MovieName:  row.MovieName,
			MovieID:    row.MovieID,
			Category:   row.Category,
			Characters: movie.ParseCharacters(row.Characters),
			ImdbRating: movie.ParseRating(row.ImdbRating),
		})
	}
	return p
}

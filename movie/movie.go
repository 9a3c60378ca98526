package movie

import (
	"math"
	"strings"

	"moviedb/errs"
	"moviedb/pkg/coerce"
)

// PerPage is the fixed search page size.
const PerPage = 100

// Rating sources, in the order they are reported.
const (
	SourceIMDB           = "Internet Movie Database"
	SourceRottenTomatoes = "Rotten Tomatoes"
	SourceMetacritic     = "Metacritic"
)

var (
	ErrInvalidYear = errs.Errorf(errs.EINVALID, "Invalid year format. Format must be yyyy.")
	ErrInvalidPage = errs.Errorf(errs.EINVALID, "Invalid page format. page must be a number.")
	ErrNotFound    = errs.Errorf(errs.ENOTFOUND, "No record exists of a movie with this ID")
)

// Record is a row of the basics table with ratings as stored.
type Record struct {
	ImdbID               string
	Title                string
	Year                 *int
	Runtime              *int
	Genres               *string
	Country              *string
	Boxoffice            *string
	Poster               *string
	Plot                 *string
	ImdbRating           *string
	RottenTomatoesRating *string
	MetacriticRating     *string
	Classification       *string
}

// CreditRow is one basics x principals join row.
type CreditRow struct {
	Record
	PersonID   string
	Category   string
	Name       string
	Characters string
}

// Movie is the search result shape.
type Movie struct {
	Title                string   `json:"title"`
	Year                 *int     `json:"year"`
	ImdbID               string   `json:"imdbID"`
	ImdbRating           *float64 `json:"imdbRating"`
	RottenTomatoesRating *float64 `json:"rottenTomatoesRating"`
	MetacriticRating     *float64 `json:"metacriticRating"`
	Classification       *string  `json:"classification"`
}

func FromRecord(r Record) Movie {
	return Movie{
		Title:                r.Title,
		Year:                 r.Year,
		ImdbID:               r.ImdbID,
		ImdbRating:           ParseRating(r.ImdbRating),
		RottenTomatoesRating: ParseRating(r.RottenTomatoesRating),
		MetacriticRating:     ParseRating(r.MetacriticRating),
		Classification:       r.Classification,
	}
}

type Pagination struct {
	Total       int64 `json:"total"`
	LastPage    int64 `json:"lastPage"`
	PerPage     int   `json:"perPage"`
	CurrentPage int   `json:"currentPage"`
	PrevPage    *int  `json:"prevPage"`
	NextPage    *int  `json:"nextPage"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

type SearchResult struct {
	Data       []Movie    `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type Principal struct {
	ID         string   `json:"id"`
	Category   string   `json:"category"`
	Name       string   `json:"name"`
	Characters []string `json:"characters"`
}

type Rating struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
}

type Detail struct {
	Title      string      `json:"title"`
	Year       *int        `json:"year"`
	Runtime    *int        `json:"runtime"`
	Genres     []string    `json:"genres"`
	Country    *string     `json:"country"`
	Principals []Principal `json:"principals"`
	Ratings    []Rating    `json:"ratings"`
	Boxoffice  *string     `json:"boxoffice"`
	Poster     *string     `json:"poster"`
	Plot       *string     `json:"plot"`
}

// NewDetail folds the join rows of one movie into its detail view.
// rows must not be empty.
func NewDetail(rows []CreditRow) Detail {
	first := rows[0].Record
	d := Detail{
		Title:      first.Title,
		Year:       first.Year,
		Runtime:    first.Runtime,
		Genres:     splitGenres(first.Genres),
		Country:    first.Country,
		Principals: make([]Principal, 0, len(rows)),
		Ratings:    make([]Rating, 0, 3),
		Boxoffice:  first.Boxoffice,
		Poster:     first.Poster,
		Plot:       first.Plot,
	}
	for _, row := range rows {
		d.Principals = append(d.Principals, Principal{
			ID:         row.PersonID,
			Category:   row.Category,
			Name:       row.Name,
			Characters: ParseCharacters(row.Characters),
		})
	}

	sources := []struct {
		name string
		raw  *string
	}{
		{SourceIMDB, first.ImdbRating},
		{SourceRottenTomatoes, first.RottenTomatoesRating},
		{SourceMetacritic, first.MetacriticRating},
	}
	for _, src := range sources {
		if v := ParseRating(src.raw); v != nil {
			d.Ratings = append(d.Ratings, Rating{Source: src.name, Value: *v})
		}
	}
	return d
}

// ParseRating returns nil unless raw holds a finite number.
func ParseRating(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	v, ok := coerce.ToNumber(strings.TrimSpace(*raw))
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

var characterArtifacts = strings.NewReplacer("[", "", "]", "", `"`, "")

// ParseCharacters turns a stored list such as ["Self","Host"] into its
// names. Empty entries are dropped.
func ParseCharacters(raw string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(characterArtifacts.Replace(raw), ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == `\N` {
			continue
		}
		out = append(out, part)
	}
	return out
}

func splitGenres(raw *string) []string {
	out := make([]string, 0)
	if raw == nil {
		return out
	}
	for _, g := range strings.Split(*raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

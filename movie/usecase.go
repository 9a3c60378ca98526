package movie

import (
	"context"
	"math"
	"regexp"
	"strconv"

	"moviedb/pkg/coerce"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// maxPage is the last page whose offset fits in an int.
const maxPage = math.MaxInt/PerPage + 1

type Service interface {
	Search(ctx context.Context, p SearchParams) (SearchResult, error)
	Details(ctx context.Context, imdbID string) (Detail, error)
}

// Filter narrows a search. Empty fields are not applied.
type Filter struct {
	Title  string
	Year   string
	Offset int
	Limit  int
}

type Repository interface {
	Count(ctx context.Context, f Filter) (int64, error)
	Search(ctx context.Context, f Filter) ([]Record, error)
	Credits(ctx context.Context, imdbID string) ([]CreditRow, error)
}

// Cache stores immutable read models. Failures are never fatal to a read.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
}

// SearchParams carries the raw query string values.
type SearchParams struct {
	Title string
	Year  string
	Page  string
}

type Usecase struct {
	r     Repository
	cache Cache
}

func NewUsecase(r Repository) *Usecase {
	return &Usecase{r: r}
}

// WithCache enables read-through caching of movie details.
func (uc *Usecase) WithCache(c Cache) *Usecase {
	uc.cache = c
	return uc
}

func (uc *Usecase) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	if p.Year != "" && !yearPattern.MatchString(p.Year) {
		return SearchResult{}, ErrInvalidYear
	}
	page, err := parsePage(p.Page)
	if err != nil {
		return SearchResult{}, err
	}

	f := Filter{
		Title:  p.Title,
		Year:   p.Year,
		Offset: (page - 1) * PerPage,
		Limit:  PerPage,
	}

	total, err := uc.r.Count(ctx, f)
	if err != nil {
		return SearchResult{}, err
	}
	records, err := uc.r.Search(ctx, f)
	if err != nil {
		return SearchResult{}, err
	}

	data := make([]Movie, len(records))
	for i, r := range records {
		data[i] = FromRecord(r)
	}
	return SearchResult{
		Data:       data,
		Pagination: paginate(total, page, f.Offset, len(data)),
	}, nil
}

func (uc *Usecase) Details(ctx context.Context, imdbID string) (Detail, error) {
	key := "movie:" + imdbID
	if uc.cache != nil {
		var cached Detail
		if ok, _ := uc.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	rows, err := uc.r.Credits(ctx, imdbID)
	if err != nil {
		return Detail{}, err
	}
	if len(rows) == 0 {
		return Detail{}, ErrNotFound
	}

	d := NewDetail(rows)
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, key, d)
	}
	return d, nil
}

func parsePage(raw string) (int, error) {
	if raw == "" {
		return 1, nil
	}
	if !coerce.IsNumeric(raw) {
		return 0, ErrInvalidPage
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 || page > maxPage {
		return 0, ErrInvalidPage
	}
	return page, nil
}

func paginate(total int64, page, offset, count int) Pagination {
	lastPage := (total + PerPage - 1) / PerPage
	p := Pagination{
		Total:       total,
		LastPage:    lastPage,
		PerPage:     PerPage,
		CurrentPage: page,
		From:        offset,
		To:          offset + count,
	}
	if page > 1 {
		prev := page - 1
		p.PrevPage = &prev
	}
	if int64(page) < lastPage {
		next := page + 1
		p.NextPage = &next
	}
	return p
}

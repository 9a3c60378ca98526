package person

import (
	"context"

	"moviedb/movie"
)

type Service interface {
	Get(ctx context.Context, id string) (Person, error)
}

type Repository interface {
	Roles(ctx context.Context, id string) ([]RoleRow, error)
}

type Usecase struct {
	r     Repository
	cache movie.Cache
}

func NewUsecase(r Repository) *Usecase {
	return &Usecase{r: r}
}

func (uc *Usecase) WithCache(c movie.Cache) *Usecase {
	uc.cache = c
	return uc
}

func (uc *Usecase) Get(ctx context.Context, id string) (Person, error) {
	key := "person:" + id
	if uc.cache != nil {
		var cached Person
		if ok, _ := uc.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	rows, err := uc.r.Roles(ctx, id)
	if err != nil {
		return Person{}, err
	}
	if len(rows) == 0 {
		return Person{}, ErrNotFound
	}

	p := NewPerson(rows)
	if uc.cache != nil {
		_ = uc.cache.Set(ctx, key, p)
	}
	return p, nil
}

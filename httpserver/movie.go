package httpserver

import (
	"context"
	"sort"
	"strings"

	"moviedb/errs"
	"moviedb/movie"
	"moviedb/pipeline"
	"moviedb/pkg/jwt"

	"github.com/labstack/echo/v4"
)

var errMovieServiceMissing = errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured")

func (s *Server) RegisterMovieRoutes(g *echo.Group) {
	g.GET("/search", pipeline.Handle(parseMovieSearch, s.searchMovies, s.errorHook()))
	g.GET("/data/:imdbID", pipeline.Handle(parseMovieID, s.movieDetails, s.errorHook()))
}

func parseMovieSearch(c echo.Context, _ *jwt.Claims) (movie.SearchParams, error) {
	return movie.SearchParams{
		Title: c.QueryParam("title"),
		Year:  c.QueryParam("year"),
		Page:  c.QueryParam("page"),
	}, nil
}

func parseMovieID(c echo.Context, _ *jwt.Claims) (string, error) {
	if err := rejectQueryParams(c); err != nil {
		return "", err
	}
	return c.Param("imdbID"), nil
}

// searchMovies godoc
// @Summary Search Movies
// @Description Paged search by title substring and year
// @Tags movies
// @Produce json
// @Param title query string false "Title substring"
// @Param year query string false "Release year (yyyy)"
// @Param page query int false "Page number, default 1"
// @Success 200 {object} movie.SearchResult
// @Failure 400 {object} pipeline.ErrorBody
// @Router /movies/search [get]
func (s *Server) searchMovies(ctx context.Context, p movie.SearchParams) (movie.SearchResult, error) {
	if s.MovieService == nil {
		return movie.SearchResult{}, errMovieServiceMissing
	}
	return s.MovieService.Search(ctx, p)
}

// movieDetails godoc
// @Summary Movie Details
// @Description Movie with principals and ratings
// @Tags movies
// @Produce json
// @Param imdbID path string true "IMDb id"
// @Success 200 {object} movie.Detail
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 404 {object} pipeline.ErrorBody
// @Router /movies/data/{imdbID} [get]
func (s *Server) movieDetails(ctx context.Context, imdbID string) (movie.Detail, error) {
	if s.MovieService == nil {
		return movie.Detail{}, errMovieServiceMissing
	}
	return s.MovieService.Details(ctx, imdbID)
}

// rejectQueryParams fails when the request carries any query parameter,
// naming them in sorted order.
func rejectQueryParams(c echo.Context) error {
	params := c.QueryParams()
	if len(params) == 0 {
		return nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return errs.Errorf(errs.EINVALID,
		"Invalid query parameters: %s. Query parameters are not permitted.",
		strings.Join(names, ", "))
}

// nolint: funlen
package httpserver_test

import (
	"errors"
	"net/http"
	"testing"

	"moviedb/httpserver"
	"moviedb/movie"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMovieRoutes_Search(t *testing.T) {
	t.Run("should pass raw query values to the service", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))
		result := movie.SearchResult{
			Data:       []movie.Movie{{Title: "Star Wars", ImdbID: "tt0076759", Year: intPtr(1977)}},
			Pagination: movie.Pagination{Total: 1, LastPage: 1, PerPage: 100, CurrentPage: 1, To: 1},
		}
		svc.On("Search", mock.Anything, movie.SearchParams{Title: "star", Year: "1977", Page: "1"}).Return(result, nil)

		rec := makeRequest(server, http.MethodGet, "/movies/search?title=star&year=1977&page=1", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		data := body["data"].([]interface{})
		assert.Len(t, data, 1)
		assert.Equal(t, "tt0076759", data[0].(map[string]interface{})["imdbID"])
		pagination := body["pagination"].(map[string]interface{})
		assert.Nil(t, pagination["prevPage"])
		assert.Nil(t, pagination["nextPage"])
		svc.AssertExpectations(t)
	})

	t.Run("should render validation errors as 400", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))
		svc.On("Search", mock.Anything, movie.SearchParams{Year: "77"}).Return(movie.SearchResult{}, movie.ErrInvalidYear)

		rec := makeRequest(server, http.MethodGet, "/movies/search?year=77", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeErrorBody(t, rec)
		assert.True(t, body.Error)
		assert.Equal(t, "Invalid year format. Format must be yyyy.", body.Message)
	})

	t.Run("should hide internal failures", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))
		svc.On("Search", mock.Anything, mock.Anything).Return(movie.SearchResult{}, errors.New("connection refused"))

		rec := makeRequest(server, http.MethodGet, "/movies/search", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", decodeErrorBody(t, rec).Message)
	})

	t.Run("should answer 501 without a movie service", func(t *testing.T) {
		server := newTestServer(t)

		rec := makeRequest(server, http.MethodGet, "/movies/search", nil)

		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestMovieRoutes_Details(t *testing.T) {
	t.Run("should return the movie detail", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))
		detail := movie.Detail{
			Title:      "Star Wars",
			Genres:     []string{"Action", "Adventure"},
			Principals: []movie.Principal{{ID: "nm0000148", Category: "actor", Name: "Harrison Ford", Characters: []string{"Han Solo"}}},
			Ratings:    []movie.Rating{{Source: "Internet Movie Database", Value: 8.6}},
		}
		svc.On("Details", mock.Anything, "tt0076759").Return(detail, nil)

		rec := makeRequest(server, http.MethodGet, "/movies/data/tt0076759", nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Star Wars", body["title"])
		assert.Len(t, body["principals"], 1)
		svc.AssertExpectations(t)
	})

	t.Run("should reject query parameters in sorted order", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))

		rec := makeRequest(server, http.MethodGet, "/movies/data/tt0076759?zeta=1&alpha=2", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t,
			"Invalid query parameters: alpha, zeta. Query parameters are not permitted.",
			decodeErrorBody(t, rec).Message)
		svc.AssertNotCalled(t, "Details", mock.Anything, mock.Anything)
	})

	t.Run("should answer 404 for unknown movies", func(t *testing.T) {
		svc := new(MockMovieService)
		server := newTestServer(t, httpserver.WithMovieService(svc))
		svc.On("Details", mock.Anything, "tt404").Return(movie.Detail{}, movie.ErrNotFound)

		rec := makeRequest(server, http.MethodGet, "/movies/data/tt404", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "No record exists of a movie with this ID", decodeErrorBody(t, rec).Message)
	})
}

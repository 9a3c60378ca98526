package httpserver

import (
	"context"

	"moviedb/errs"
	"moviedb/person"
	"moviedb/pipeline"
	"moviedb/pkg/jwt"

	"github.com/labstack/echo/v4"
)

var errPersonServiceMissing = errs.Errorf(errs.ENOTIMPLEMENTED, "person service not configured")

func (s *Server) RegisterPersonRoutes(g *echo.Group) {
	g.GET("/:id", pipeline.Handle(parsePersonID, s.personDetails, s.errorHook()), pipeline.Authorize(s.Tokens))
}

func parsePersonID(c echo.Context, _ *jwt.Claims) (string, error) {
	if err := rejectQueryParams(c); err != nil {
		return "", err
	}
	return c.Param("id"), nil
}

// personDetails godoc
// @Summary Person Details
// @Description Person with the movies they are credited in
// @Tags people
// @Produce json
// @Security BearerAuth
// @Param id path string true "IMDb person id"
// @Success 200 {object} person.Person
// @Failure 400 {object} pipeline.ErrorBody
// @Failure 401 {object} pipeline.ErrorBody
// @Failure 404 {object} pipeline.ErrorBody
// @Router /people/{id} [get]
func (s *Server) personDetails(ctx context.Context, id string) (person.Person, error) {
	if s.PersonService == nil {
		return person.Person{}, errPersonServiceMissing
	}
	return s.PersonService.Get(ctx, id)
}

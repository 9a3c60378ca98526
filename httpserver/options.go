package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"moviedb/auth"
	"moviedb/movie"
	"moviedb/person"
	"moviedb/pipeline"
	"moviedb/pkg/config"
	"moviedb/user"

	"go.uber.org/zap"
)

type Options func(s *Server) error

// WithConfig applies the listen port and CORS origins from cfg.
func WithConfig(cfg *config.Config) Options {
	return func(s *Server) error {
		if cfg == nil {
			return errors.New("httpserver: nil config")
		}
		s.Config = cfg
		if cfg.Port > 0 {
			s.Addr = fmt.Sprintf(":%d", cfg.Port)
		}
		if cfg.AllowOrigins != "" {
			s.AllowOrigins = strings.Split(cfg.AllowOrigins, ",")
		}
		return nil
	}
}

func WithLogger(l *zap.SugaredLogger) Options {
	return func(s *Server) error {
		if l != nil {
			s.Logger = l
		}
		return nil
	}
}

// WithRateLimit sets the per-client request rate. Zero disables limiting.
func WithRateLimit(perSecond float64) Options {
	return func(s *Server) error {
		if perSecond < 0 {
			return errors.New("httpserver: negative rate limit")
		}
		s.RateLimit = perSecond
		return nil
	}
}

func WithMovieService(svc movie.Service) Options {
	return func(s *Server) error {
		s.MovieService = svc
		return nil
	}
}

func WithPersonService(svc person.Service) Options {
	return func(s *Server) error {
		s.PersonService = svc
		return nil
	}
}

func WithUserService(svc user.Service) Options {
	return func(s *Server) error {
		s.UserService = svc
		return nil
	}
}

func WithAuthService(svc auth.Service) Options {
	return func(s *Server) error {
		s.AuthService = svc
		return nil
	}
}

// WithTokenVerifier sets the verifier used for bearer tokens. Without it
// the server verifies with the configured JWT secret.
func WithTokenVerifier(v pipeline.TokenVerifier) Options {
	return func(s *Server) error {
		s.Tokens = v
		return nil
	}
}

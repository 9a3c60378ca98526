package movieclient

import (
	"context"
	"time"

	"moviedb/movie"
	"moviedb/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LoaderConfig shapes the request rate of a DetailLoader. Burst requests
// go out immediately, after that one request per Interval.
type LoaderConfig struct {
	Burst    int
	Interval time.Duration
}

func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Burst:    10,
		Interval: 1800 * time.Millisecond,
	}
}

type DetailFetcher interface {
	Details(ctx context.Context, imdbID string) (movie.Detail, error)
}

// Loaded is the outcome for one movie. Err is set when its detail could
// not be fetched.
type Loaded struct {
	ImdbID string
	Detail movie.Detail
	Err    error
}

// DetailLoader enriches a list of search results with their details. The
// rate limit is shared by every Load on the same loader.
type DetailLoader struct {
	fetcher DetailFetcher
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

func NewDetailLoader(f DetailFetcher, cfg LoaderConfig) *DetailLoader {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &DetailLoader{
		fetcher: f,
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), burst),
		logger:  logger.NOOPLogger,
	}
}

func (l *DetailLoader) WithLogger(lg *zap.SugaredLogger) *DetailLoader {
	l.logger = lg
	return l
}

// Load fetches details one at a time in input order and calls onLoaded
// after each. A failed fetch is reported and the next movie is tried. It
// returns early with the context error once ctx is done.
func (l *DetailLoader) Load(ctx context.Context, movies []movie.Movie, onLoaded func(Loaded)) error {
	for _, m := range movies {
		if err := l.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		d, err := l.fetcher.Details(ctx, m.ImdbID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Warnw("load movie detail", "imdb_id", m.ImdbID, zap.Error(err))
		}
		onLoaded(Loaded{ImdbID: m.ImdbID, Detail: d, Err: err})
	}
	return nil
}

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"moviedb/postgres"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	batchSize = 500
	// nullMarker is how the IMDB exports spell a missing value.
	nullMarker = `\N`
)

var errEmptyCSV = errors.New("csv has no header")

type importCounts struct {
	Basics     int
	Names      int
	Principals int
}

// importDataset upserts the three CSVs of dir in one transaction, so a
// failed run leaves the tables untouched.
func importDataset(ctx context.Context, db *gorm.DB, dir string, limit int) (importCounts, error) {
	var counts importCounts
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if counts.Basics, err = importBasics(tx, filepath.Join(dir, "basics.csv"), limit); err != nil {
			return fmt.Errorf("basics.csv: %w", err)
		}
		if counts.Names, err = importNames(tx, filepath.Join(dir, "names.csv"), limit); err != nil {
			return fmt.Errorf("names.csv: %w", err)
		}
		if counts.Principals, err = importPrincipals(tx, filepath.Join(dir, "principals.csv"), limit); err != nil {
			return fmt.Errorf("principals.csv: %w", err)
		}
		return nil
	})
	return counts, err
}

func importBasics(tx *gorm.DB, path string, limit int) (int, error) {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "tconst"}},
		UpdateAll: true,
	}
	return importCSV(tx, path, limit, []string{"tconst", "primaryTitle"}, upsert,
		func(r csvRecord) (postgres.BasicsModel, error) {
			year, err := r.intOrNil("year")
			if err != nil {
				return postgres.BasicsModel{}, err
			}
			runtime, err := r.intOrNil("runtimeMinutes")
			if err != nil {
				return postgres.BasicsModel{}, err
			}
			return postgres.BasicsModel{
				Tconst:               r.get("tconst"),
				PrimaryTitle:         r.get("primaryTitle"),
				Year:                 year,
				RuntimeMinutes:       runtime,
				Genres:               r.stringOrNil("genres"),
				Country:              r.stringOrNil("country"),
				Boxoffice:            r.stringOrNil("boxoffice"),
				Poster:               r.stringOrNil("poster"),
				Plot:                 r.stringOrNil("plot"),
				ImdbRating:           r.stringOrNil("imdbRating"),
				RottenTomatoesRating: r.stringOrNil("rottentomatoesRating"),
				MetacriticRating:     r.stringOrNil("metacriticRating"),
				Rated:                r.stringOrNil("rated"),
			}, nil
		})
}

func importNames(tx *gorm.DB, path string, limit int) (int, error) {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "nconst"}},
		UpdateAll: true,
	}
	return importCSV(tx, path, limit, []string{"nconst", "primaryName"}, upsert,
		func(r csvRecord) (postgres.NameModel, error) {
			birth, err := r.intOrNil("birthYear")
			if err != nil {
				return postgres.NameModel{}, err
			}
			death, err := r.intOrNil("deathYear")
			if err != nil {
				return postgres.NameModel{}, err
			}
			return postgres.NameModel{
				Nconst:      r.get("nconst"),
				PrimaryName: r.get("primaryName"),
				BirthYear:   birth,
				DeathYear:   death,
			}, nil
		})
}

func importPrincipals(tx *gorm.DB, path string, limit int) (int, error) {
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "tconst"}, {Name: "ordering"}},
		DoUpdates: clause.AssignmentColumns([]string{"nconst", "category", "job", "characters", "name"}),
	}
	return importCSV(tx, path, limit, []string{"tconst", "ordering", "nconst"}, upsert,
		func(r csvRecord) (postgres.PrincipalModel, error) {
			ordering, err := strconv.Atoi(r.get("ordering"))
			if err != nil {
				return postgres.PrincipalModel{}, fmt.Errorf("ordering %q: %w", r.get("ordering"), err)
			}
			return postgres.PrincipalModel{
				Tconst:     r.get("tconst"),
				Ordering:   ordering,
				Nconst:     r.get("nconst"),
				Category:   r.get("category"),
				Job:        r.stringOrNil("job"),
				Characters: r.stringOrNil("characters"),
				Name:       r.get("name"),
			}, nil
		})
}

// importCSV reads path by header name, converts every row with toModel and
// upserts the rows in batches. required columns must exist in the header.
func importCSV[M any](tx *gorm.DB, path string, limit int, required []string, upsert clause.OnConflict, toModel func(csvRecord) (M, error)) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, errEmptyCSV
	}
	if err != nil {
		return 0, err
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("missing required column %q", name)
		}
	}

	count := 0
	batch := make([]M, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := tx.Clauses(upsert).Create(&batch).Error; err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for line := 2; limit <= 0 || count < limit; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}

		m, err := toModel(csvRecord{columns: columns, fields: fields})
		if err != nil {
			return count, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, m)
		count++

		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return count, err
			}
		}
	}

	return count, flush()
}

type csvRecord struct {
	columns map[string]int
	fields  []string
}

func (r csvRecord) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r csvRecord) stringOrNil(name string) *string {
	v := r.get(name)
	if v == "" || v == nullMarker {
		return nil
	}
	return &v
}

func (r csvRecord) intOrNil(name string) (*int, error) {
	v := r.stringOrNil(name)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, *v, err)
	}
	return &n, nil
}

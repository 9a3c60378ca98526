// nolint: funlen
package main

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"moviedb/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	basicsCSV = "tconst,primaryTitle,year,runtimeMinutes,genres,country,boxoffice,poster,plot,imdbRating,rottentomatoesRating,metacriticRating,rated\n" +
		"tt0076759,Star Wars,1977,121,\"Action,Adventure\",USA,\"$460,998,507\",N/A,A farm boy.,8.6,93,90,PG\n" +
		"tt0080684,The Empire Strikes Back,1980,\\N,\\N,\\N,\\N,\\N,\\N,8.7,\\N,\\N,\\N\n"
	namesCSV = "nconst,primaryName,birthYear,deathYear\n" +
		"nm0000148,Harrison Ford,1942,\\N\n" +
		"nm0000184,George Lucas,1944,\\N\n"
	principalsCSV = "tconst,ordering,nconst,category,job,characters,name\n" +
		"tt0076759,1,nm0000148,actor,\\N,\"[\"\"Han Solo\"\"]\",Harrison Ford\n" +
		"tt0076759,2,nm0000184,director,\\N,\\N,George Lucas\n" +
		"tt0080684,1,nm0000148,actor,\\N,\"[\"\"Han Solo\"\"]\",Harrison Ford\n"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), postgres.GormConfig(false))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&postgres.BasicsModel{}, &postgres.PrincipalModel{}, &postgres.NameModel{}))
	return db
}

func writeDataset(t *testing.T, basics, names, principals string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range map[string]string{
		"basics.csv":     basics,
		"names.csv":      names,
		"principals.csv": principals,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()

	out, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(out)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, out.Close())
}

func TestImportDataset(t *testing.T) {
	ctx := context.Background()

	t.Run("should import every file and map null markers", func(t *testing.T) {
		db := newTestDB(t)
		dir := writeDataset(t, basicsCSV, namesCSV, principalsCSV)

		counts, err := importDataset(ctx, db, dir, 0)

		require.NoError(t, err)
		assert.Equal(t, importCounts{Basics: 2, Names: 2, Principals: 3}, counts)

		var sw postgres.BasicsModel
		require.NoError(t, db.First(&sw, "tconst = ?", "tt0076759").Error)
		assert.Equal(t, "Star Wars", sw.PrimaryTitle)
		require.NotNil(t, sw.Year)
		assert.Equal(t, 1977, *sw.Year)
		require.NotNil(t, sw.Genres)
		assert.Equal(t, "Action,Adventure", *sw.Genres)
		require.NotNil(t, sw.Boxoffice)
		assert.Equal(t, "$460,998,507", *sw.Boxoffice)

		var esb postgres.BasicsModel
		require.NoError(t, db.First(&esb, "tconst = ?", "tt0080684").Error)
		assert.Nil(t, esb.RuntimeMinutes)
		assert.Nil(t, esb.Plot)

		var ford postgres.NameModel
		require.NoError(t, db.First(&ford, "nconst = ?", "nm0000148").Error)
		assert.Nil(t, ford.DeathYear)

		var han postgres.PrincipalModel
		require.NoError(t, db.First(&han, "tconst = ? AND ordering = ?", "tt0076759", 1).Error)
		require.NotNil(t, han.Characters)
		assert.Equal(t, `["Han Solo"]`, *han.Characters)
		assert.Nil(t, han.Job)
	})

	t.Run("should update rows on re-import instead of duplicating", func(t *testing.T) {
		db := newTestDB(t)
		_, err := importDataset(ctx, db, writeDataset(t, basicsCSV, namesCSV, principalsCSV), 0)
		require.NoError(t, err)

		renamed := "tconst,ordering,nconst,category,job,characters,name\n" +
			"tt0076759,2,nm0000184,writer,\\N,\\N,George Lucas\n"
		_, err = importDataset(ctx, db, writeDataset(t, basicsCSV, namesCSV, renamed), 0)
		require.NoError(t, err)

		var total int64
		require.NoError(t, db.Model(&postgres.PrincipalModel{}).Count(&total).Error)
		assert.EqualValues(t, 3, total)

		var lucas postgres.PrincipalModel
		require.NoError(t, db.First(&lucas, "tconst = ? AND ordering = ?", "tt0076759", 2).Error)
		assert.Equal(t, "writer", lucas.Category)

		require.NoError(t, db.Model(&postgres.BasicsModel{}).Count(&total).Error)
		assert.EqualValues(t, 2, total)
	})

	t.Run("should honour the row limit per file", func(t *testing.T) {
		db := newTestDB(t)

		counts, err := importDataset(ctx, db, writeDataset(t, basicsCSV, namesCSV, principalsCSV), 1)

		require.NoError(t, err)
		assert.Equal(t, importCounts{Basics: 1, Names: 1, Principals: 1}, counts)
	})

	t.Run("should roll back everything when a file is invalid", func(t *testing.T) {
		db := newTestDB(t)
		broken := "tconst,ordering,nconst,category,job,characters,name\n" +
			"tt0076759,first,nm0000148,actor,\\N,\\N,Harrison Ford\n"

		_, err := importDataset(ctx, db, writeDataset(t, basicsCSV, namesCSV, broken), 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "principals.csv")
		var total int64
		require.NoError(t, db.Model(&postgres.BasicsModel{}).Count(&total).Error)
		assert.Zero(t, total)
	})

	t.Run("should reject a file without its required columns", func(t *testing.T) {
		db := newTestDB(t)

		_, err := importDataset(ctx, db, writeDataset(t, "tconst,year\ntt1,2000\n", namesCSV, principalsCSV), 0)

		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing required column "primaryTitle"`)
	})

	t.Run("should reject an empty file", func(t *testing.T) {
		db := newTestDB(t)

		_, err := importDataset(ctx, db, writeDataset(t, basicsCSV, "", principalsCSV), 0)

		assert.ErrorIs(t, err, errEmptyCSV)
	})
}

func TestExtractDataset(t *testing.T) {
	t.Run("should extract nested dataset files", func(t *testing.T) {
		dir := t.TempDir()
		zipPath := filepath.Join(dir, "dataset.zip")
		writeZip(t, zipPath, map[string]string{
			"imdb/basics.csv":     basicsCSV,
			"imdb/names.csv":      namesCSV,
			"imdb/principals.csv": principalsCSV,
			"imdb/README.txt":     "ignored",
		})

		require.NoError(t, extractDataset(zipPath, dir))

		got, err := os.ReadFile(filepath.Join(dir, "names.csv"))
		require.NoError(t, err)
		assert.Equal(t, namesCSV, string(got))
		assert.NoFileExists(t, filepath.Join(dir, "README.txt"))
	})

	t.Run("should fail when a dataset file is missing", func(t *testing.T) {
		dir := t.TempDir()
		zipPath := filepath.Join(dir, "dataset.zip")
		writeZip(t, zipPath, map[string]string{"basics.csv": basicsCSV})

		err := extractDataset(zipPath, dir)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "names.csv")
		assert.Contains(t, err.Error(), "principals.csv")
	})
}

func TestDownloadAndExtract(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "dataset.zip")
	writeZip(t, zipPath, map[string]string{
		"basics.csv":     basicsCSV,
		"names.csv":      namesCSV,
		"principals.csv": principalsCSV,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dataset.zip" {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, zipPath)
	}))
	t.Cleanup(srv.Close)

	t.Run("should download and unpack the archive", func(t *testing.T) {
		dir, cleanup, err := downloadAndExtract(srv.URL + "/dataset.zip")
		require.NoError(t, err)

		assert.FileExists(t, filepath.Join(dir, "principals.csv"))
		cleanup()
		assert.NoDirExists(t, dir)
	})

	t.Run("should fail on a non 2xx response", func(t *testing.T) {
		_, _, err := downloadAndExtract(srv.URL + "/missing.zip")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status")
	})
}

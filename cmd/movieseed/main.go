package main

import (
	"archive/zip"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"moviedb/pkg/config"
	"moviedb/postgres"
)

// datasetFiles are imported in this order so that principals can refer to
// rows that already exist.
var datasetFiles = []string{"basics.csv", "names.csv", "principals.csv"}

func main() {
	var (
		dir    string
		zipURL string
		limit  int
	)

	flag.StringVar(&dir, "dir", "", "Directory holding basics.csv, names.csv and principals.csv (skip download)")
	flag.StringVar(&zipURL, "url", "", "URL of a zip archive holding the dataset CSVs")
	flag.IntVar(&limit, "limit", 0, "Limit number of rows imported per file (0 = all)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if dir == "" && zipURL == "" {
		slog.Error("either -dir or -url is required")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}

	db, err := postgres.NewConnection(postgres.Options{
		DBName:   cfg.DB.Name,
		DBUser:   cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     fmt.Sprintf("%d", cfg.DB.Port),
		SSLMode:  cfg.DB.EnableSSL,
	})
	if err != nil {
		slog.Error("cannot open postgres connection", "error", err)
		os.Exit(1)
	}

	cleanup := func() {}
	if dir == "" {
		path, c, err := downloadAndExtract(zipURL)
		if err != nil {
			slog.Error("failed to download dataset", "error", err)
			os.Exit(1)
		}
		dir = path
		cleanup = c
	}
	defer cleanup()

	counts, err := importDataset(context.Background(), db, dir, limit)
	if err != nil {
		slog.Error("import failed", "error", err)
		cleanup()
		os.Exit(1)
	}

	slog.Info("import completed", "basics", counts.Basics, "names", counts.Names, "principals", counts.Principals)
}

func downloadAndExtract(zipURL string) (string, func(), error) {
	tmpDir, err := os.MkdirTemp("", "moviedb-")
	if err != nil {
		return "", func() {}, err
	}

	cleanup := func() {
		_ = os.RemoveAll(tmpDir)
	}

	zipPath := filepath.Join(tmpDir, "dataset.zip")
	if err := downloadFile(zipURL, zipPath); err != nil {
		cleanup()
		return "", func() {}, err
	}

	if err := extractDataset(zipPath, tmpDir); err != nil {
		cleanup()
		return "", func() {}, err
	}

	return tmpDir, cleanup, nil
}

func downloadFile(url, dest string) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url) // nolint: noctx
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

// extractDataset copies every dataset CSV found anywhere in the archive
// into destDir. All of them must be present.
func extractDataset(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	wanted := make(map[string]bool, len(datasetFiles))
	for _, name := range datasetFiles {
		wanted[name] = true
	}

	for _, file := range r.File {
		base := filepath.Base(file.Name)
		if !wanted[base] || file.FileInfo().IsDir() {
			continue
		}
		if err := extractFile(file, filepath.Join(destDir, base)); err != nil {
			return err
		}
		delete(wanted, base)
	}

	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, name := range datasetFiles {
			if wanted[name] {
				missing = append(missing, name)
			}
		}
		return fmt.Errorf("missing in zip: %v", missing)
	}
	return nil
}

func extractFile(file *zip.File, destPath string) error {
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

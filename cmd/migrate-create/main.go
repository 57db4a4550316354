package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fake-artist/internal/logging"
)

var versionPattern = regexp.MustCompile(`^(\d+)_.+\.(up|down)\.sql$`)

func main() {
	name := flag.String("name", "", "migration name")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	log := logging.New("info", "console")
	upPath, downPath, err := create(*dir, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("create migration")
	}
	log.Info().Str("up", upPath).Str("down", downPath).Msg("migration created")
}

// create writes an empty up/down pair numbered after the highest existing
// migration in dir.
func create(dir, name string) (string, string, error) {
	if name == "" {
		return "", "", fmt.Errorf("migration name is required")
	}
	if strings.ContainsAny(name, " /") {
		return "", "", fmt.Errorf("migration name %q must not contain spaces or slashes", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create migrations dir: %w", err)
	}
	version, err := nextVersion(dir)
	if err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%06d_%s", version, name)
	upPath := filepath.Join(dir, base+".up.sql")
	downPath := filepath.Join(dir, base+".down.sql")
	if err := writeFile(upPath, "-- up migration\n"); err != nil {
		return "", "", err
	}
	if err := writeFile(downPath, "-- down migration\n"); err != nil {
		return "", "", err
	}
	return upPath, downPath, nil
}

func nextVersion(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, entry := range entries {
		match := versionPattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		highest = max(highest, version)
	}
	return highest + 1, nil
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

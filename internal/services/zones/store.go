package zones

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/MGiella/Smart-Lighting-with-KNX-and-Video-Tracking/internal/models"
)

// Store persists the ordered list of zone polygons.
type Store interface {
	Save(ctx context.Context, polygons [][]models.Point) error
	Load(ctx context.Context) ([][]models.Point, error)
}

var pairPattern = regexp.MustCompile(`\(\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*\)`)

// FormatPolygon renders a polygon as one line: [(x, y), (x, y), ...]
func FormatPolygon(polygon []models.Point) string {
	pairs := lo.Map(polygon, func(p models.Point, _ int) string {
		return "(" + formatCoord(p.X) + ", " + formatCoord(p.Y) + ")"
	})
	return "[" + strings.Join(pairs, ", ") + "]"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParsePolygon is the inverse of FormatPolygon.
func ParsePolygon(line string) ([]models.Point, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") || !strings.HasSuffix(line, "]") {
		return nil, fmt.Errorf("malformed polygon %q: expected [...]", line)
	}
	body := strings.TrimSpace(line[1 : len(line)-1])
	matches := pairPattern.FindAllStringSubmatchIndex(body, -1)

	// Everything outside the pairs must be separators.
	rest := pairPattern.ReplaceAllString(body, "")
	if strings.Trim(rest, ", \t") != "" {
		return nil, fmt.Errorf("malformed polygon %q: unexpected %q", line, strings.TrimSpace(rest))
	}

	points := make([]models.Point, 0, len(matches))
	for _, m := range matches {
		x, err := strconv.ParseFloat(body[m[2]:m[3]], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed x in %q: %w", line, err)
		}
		y, err := strconv.ParseFloat(body[m[4]:m[5]], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed y in %q: %w", line, err)
		}
		points = append(points, models.Point{X: x, Y: y})
	}
	return points, nil
}

func encodePolygons(polygons [][]models.Point) []byte {
	var buf bytes.Buffer
	for _, polygon := range polygons {
		buf.WriteString(FormatPolygon(polygon))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func decodePolygons(r io.Reader) ([][]models.Point, error) {
	var polygons [][]models.Point
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		polygon, err := ParsePolygon(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		polygons = append(polygons, polygon)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return polygons, nil
}

// FileStore keeps zones in a text file, one polygon per line.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Save replaces the file atomically.
func (s *FileStore) Save(ctx context.Context, polygons [][]models.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".zones-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encodePolygons(polygons)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write zones: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) Load(ctx context.Context) ([][]models.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodePolygons(f)
}

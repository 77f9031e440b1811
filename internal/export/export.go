// Package export writes a synchronized session to a JSON playback file.
package export

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/tracksync/internal/colormap"
	"github.com/OCAP2/tracksync/internal/config"
	"github.com/OCAP2/tracksync/internal/engine"
	"github.com/OCAP2/tracksync/internal/geo"
	"github.com/OCAP2/tracksync/internal/playback"
	"github.com/peterstace/simplefeatures/geom"
)

// ErrNotSynced is returned when the session has no synchronized interval.
var ErrNotSynced = errors.New("session is not synchronized")

// Playback is the root JSON structure. Planar positions are EPSG:3857.
type Playback struct {
	Name          string                 `json:"name"`
	Generated     string                 `json:"generated"`
	StartTime     float64                `json:"startTime"`
	EndTime       float64                `json:"endTime"`
	FrameInterval float64                `json:"frameInterval"`
	ColorMode     colormap.Mode          `json:"colorMode"`
	Unit          string                 `json:"unit,omitempty"`
	Legend        []colormap.LegendEntry `json:"legend,omitempty"`
	Tracks        []TrackJSON            `json:"tracks"`
	Flags         []FlagJSON             `json:"flags"`
	Frames        []FrameJSON            `json:"frames"`
}

// TrackJSON is one track with its alignment.
type TrackJSON struct {
	Index     int             `json:"index"`
	Name      string          `json:"name"`
	Color     string          `json:"color"`
	Visible   bool            `json:"visible"`
	Reference bool            `json:"reference"`
	Synced    bool            `json:"synced"`
	Offset    float64         `json:"offset"`
	Elapsed   float64         `json:"elapsed"`
	Delta     float64         `json:"delta"`
	Path      geom.LineString `json:"path"`
}

// FlagJSON is one flag slot.
type FlagJSON struct {
	Kind     string    `json:"kind"`
	Phase    string    `json:"phase"`
	Track    int       `json:"track"`
	Point    int       `json:"point"`
	Position []float64 `json:"position,omitempty"`
}

// FrameJSON is the marker set at one sampled moment.
// Markers format: [track, point, [x, y], altitude, color]
type FrameJSON struct {
	Time    float64 `json:"time"`
	Elapsed string  `json:"elapsed"`
	Markers [][]any `json:"markers"`
}

// Exporter writes playback files into the configured output directory.
type Exporter struct {
	cfg      config.ExportConfig
	lastPath string
}

func New(cfg config.ExportConfig) *Exporter {
	return &Exporter{cfg: cfg}
}

// LastExportPath returns the path of the most recent export.
func (e *Exporter) LastExportPath() string {
	return e.lastPath
}

// Export builds the playback for s and writes it as name_YYYYMMDD_HHMMSS.json
// (or .json.gz when compression is on).
func (e *Exporter) Export(s *engine.Session, name string, at time.Time) (string, error) {
	data, err := Build(s, name, e.cfg.FrameInterval, at)
	if err != nil {
		return "", err
	}

	base := strings.ReplaceAll(name, " ", "_")
	base = strings.ReplaceAll(base, ":", "_")
	base = strings.ReplaceAll(base, string(filepath.Separator), "_")
	if base == "" {
		base = "tracksync"
	}
	timestamp := at.UTC().Format("20060102_150405")

	var filename string
	if e.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", base, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", base, timestamp)
	}

	if err := os.MkdirAll(e.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(e.cfg.OutputDir, filename)

	if e.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, data)
	} else {
		err = writeJSON(outputPath, data)
	}
	if err != nil {
		return "", err
	}

	e.lastPath = outputPath
	return outputPath, nil
}

// Build samples the synchronized interval every interval (1s when not
// positive). The end of the interval is always the last frame.
func Build(s *engine.Session, name string, interval time.Duration, at time.Time) (Playback, error) {
	res := s.SyncResult()
	if !res.Synced() {
		return Playback{}, ErrNotSynced
	}
	if interval <= 0 {
		interval = time.Second
	}
	step := interval.Seconds()
	start, end := s.Bounds()
	colors := s.Colors()

	out := Playback{
		Name:          name,
		Generated:     at.UTC().Format(time.RFC3339),
		StartTime:     start,
		EndTime:       end,
		FrameInterval: step,
		ColorMode:     colors.Mode,
		Unit:          colors.Mode.Unit(colors.Units),
		Legend:        s.Legend(),
		Tracks:        make([]TrackJSON, 0, s.TrackCount()),
		Flags:         make([]FlagJSON, 0, 2),
	}

	for i := 0; i < s.TrackCount(); i++ {
		tr, _ := s.Track(i)
		path, err := geo.LineString3857(tr.Coordinates)
		if err != nil {
			return Playback{}, fmt.Errorf("track %d path: %w", i, err)
		}
		tj := TrackJSON{
			Index:     i,
			Name:      tr.Name,
			Color:     tr.Color,
			Visible:   tr.Visible,
			Reference: i == res.Reference,
			Synced:    tr.IsSynced(),
			Path:      path,
		}
		if ts, ok := res.For(i); ok {
			tj.Offset = ts.Offset
			tj.Elapsed = ts.Elapsed
			tj.Delta = ts.Delta
		}
		out.Tracks = append(out.Tracks, tj)
	}

	for _, f := range s.Flags() {
		fj := FlagJSON{
			Kind:  f.Kind.String(),
			Phase: f.Phase.String(),
			Track: -1,
			Point: -1,
		}
		if f.Deployed() {
			p := geo.WebMercator(f.Position)
			fj.Track = f.Ref.TrackIndex
			fj.Point = f.Ref.PointIndex
			fj.Position = []float64{p.X, p.Y}
		}
		out.Flags = append(out.Flags, fj)
	}

	n := int(math.Floor((end-start)/step)) + 1
	out.Frames = make([]FrameJSON, 0, n+1)
	for k := 0; k < n; k++ {
		out.Frames = append(out.Frames, frameAt(s, start, start+float64(k)*step))
	}
	if last := start + float64(n-1)*step; last < end {
		out.Frames = append(out.Frames, frameAt(s, start, end))
	}
	return out, nil
}

func frameAt(s *engine.Session, start, t float64) FrameJSON {
	markers := s.MarkersAt(t)
	f := FrameJSON{
		Time:    t,
		Elapsed: playback.FormatElapsed(t - start),
		Markers: make([][]any, 0, len(markers)),
	}
	for _, m := range markers {
		p := geo.WebMercator(m.Position)
		f.Markers = append(f.Markers, []any{
			m.TrackIndex,
			m.PointIndex,
			[]float64{p.X, p.Y},
			m.Position.Z,
			m.Color,
		})
	}
	return f
}

func writeJSON(path string, data Playback) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(data)
}

func writeGzipJSON(path string, data Playback) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}

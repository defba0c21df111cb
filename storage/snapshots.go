package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"powderlines/models"
)

// SnapshotStore owns the dated file tree published for static hosting:
//
//	<root>/<resort>/terrain/<date>.json
//	<root>/<resort>/snow/<date>.json, snow/latest.json
//	<root>/<resort>/lifts/<date>.ndjson
//	<root>/<resort>/trails/data/<slug>.json, trails/index.json
//	<root>/latest.json, latest-snow.json, index.json
//
// All JSON writes go through a temp-file-and-rename so an overlapping run
// can never observe a partial snapshot.
type SnapshotStore struct {
	root string
}

func NewSnapshotStore(root string) *SnapshotStore {
	return &SnapshotStore{root: root}
}

// AggregateEntry is one resort's slot in the consolidated latest files.
type AggregateEntry struct {
	Resort    string          `json:"resort"`
	Name      string          `json:"name"`
	Date      string          `json:"date"`
	ScrapedAt time.Time       `json:"scrapedAt"`
	Payload   json.RawMessage `json:"payload"`
}

// ResortIndex lists every available dated file for one resort, most
// recent first.
type ResortIndex struct {
	Terrain IndexSection `json:"terrain"`
	Snow    IndexSection `json:"snow"`
	Lifts   IndexSection `json:"lifts"`
}

type IndexSection struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

type Index struct {
	Generated time.Time              `json:"generated"`
	Resorts   map[string]ResortIndex `json:"resorts"`
}

// HasSnapshot reports whether a dated snapshot exists. This backs the
// "already scraped today" eligibility check, keyed by the resort's local
// date.
func (s *SnapshotStore) HasSnapshot(resortKey string, kind models.DataKind, date string) bool {
	_, err := os.Stat(s.snapshotPath(resortKey, kind, date))
	return err == nil
}

// SaveTerrain writes the raw terrain payload for one resort day. Writes
// are atomic and last-write-wins, so a duplicate invocation cannot corrupt
// an existing snapshot.
func (s *SnapshotStore) SaveTerrain(resortKey, date string, payload json.RawMessage) error {
	return s.writeJSON(s.snapshotPath(resortKey, models.KindTerrain, date), payload)
}

// SaveSnow writes the dated snow snapshot and unconditionally refreshes
// the per-resort latest pointer.
func (s *SnapshotStore) SaveSnow(resortKey, date string, payload *models.SnowPayload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := s.writeJSON(s.snapshotPath(resortKey, models.KindSnow, date), data); err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.root, resortKey, "snow", "latest.json"), data)
}

// AppendLiftRecords appends one NDJSON line per observation to the
// resort's dated lift log. The log is append-only and never rewritten.
func (s *SnapshotStore) AppendLiftRecords(resortKey, date string, records []models.LiftRecord) error {
	if len(records) == 0 {
		return nil
	}

	path := filepath.Join(s.root, resortKey, "lifts", date+".ndjson")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(buf.Bytes())
	return err
}

// GenerateAggregateLatest merges the current run's results into the
// all-resorts latest file for a kind. Resorts skipped this run keep their
// previous entries, so a skipped resort never regresses the aggregate.
func (s *SnapshotStore) GenerateAggregateLatest(kind models.DataKind, entries []AggregateEntry) error {
	path := s.aggregatePath(kind)

	merged := make(map[string]AggregateEntry)
	if data, err := os.ReadFile(path); err == nil {
		var existing []AggregateEntry
		if err := json.Unmarshal(data, &existing); err == nil {
			for _, e := range existing {
				merged[e.Resort] = e
			}
		}
	}
	for _, e := range entries {
		merged[e.Resort] = e
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]AggregateEntry, 0, len(merged))
	for _, k := range keys {
		out = append(out, merged[k])
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return s.writeJSON(path, data)
}

// GenerateIndex rescans the whole tree and writes the per-resort file
// manifest. It is a full rescan, safe to run independently of any scrape.
func (s *SnapshotStore) GenerateIndex() error {
	index := Index{
		Generated: time.Now(),
		Resorts:   make(map[string]ResortIndex),
	}

	for _, key := range s.ResortKeys() {
		index.Resorts[key] = ResortIndex{
			Terrain: s.scanSection(key, "terrain", ".json"),
			Snow:    s.scanSection(key, "snow", ".json"),
			Lifts:   s.scanSection(key, "lifts", ".ndjson"),
		}
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.root, "index.json"), data)
}

// ResortKeys lists the resort directories currently present in the tree.
func (s *SnapshotStore) ResortKeys() []string {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys
}

func (s *SnapshotStore) WriteTrailArtifact(resortKey string, artifact *models.TrailArtifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.root, resortKey, "trails", "data", artifact.Slug+".json")
	return s.writeJSON(path, data)
}

// ReadTrailArtifacts loads every previously generated artifact for a
// resort. The trails index is a pure re-projection of these files.
func (s *SnapshotStore) ReadTrailArtifacts(resortKey string) ([]*models.TrailArtifact, error) {
	dir := filepath.Join(s.root, resortKey, "trails", "data")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []*models.TrailArtifact
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var artifact models.TrailArtifact
		if err := json.Unmarshal(data, &artifact); err != nil {
			return nil, fmt.Errorf("parse artifact %s: %w", entry.Name(), err)
		}
		artifacts = append(artifacts, &artifact)
	}
	return artifacts, nil
}

func (s *SnapshotStore) WriteTrailsIndex(resortKey string, index *models.TrailsIndex) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return err
	}
	return s.writeJSON(filepath.Join(s.root, resortKey, "trails", "index.json"), data)
}

func (s *SnapshotStore) Root() string {
	return s.root
}

func (s *SnapshotStore) snapshotPath(resortKey string, kind models.DataKind, date string) string {
	ext := ".json"
	if kind == "lifts" {
		ext = ".ndjson"
	}
	return filepath.Join(s.root, resortKey, string(kind), date+ext)
}

func (s *SnapshotStore) aggregatePath(kind models.DataKind) string {
	if kind == models.KindSnow {
		return filepath.Join(s.root, "latest-snow.json")
	}
	return filepath.Join(s.root, "latest.json")
}

func (s *SnapshotStore) scanSection(resortKey, sub, ext string) IndexSection {
	dir := filepath.Join(s.root, resortKey, sub)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IndexSection{Files: []string{}}
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ext) || name == "latest.json" {
			continue
		}
		files = append(files, name)
	}

	// ISO date names, so descending lexicographic equals descending
	// chronological.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	if files == nil {
		files = []string{}
	}
	return IndexSection{Count: len(files), Files: files}
}

// writeJSON writes data to path through a temp file in the same directory
// followed by a rename.
func (s *SnapshotStore) writeJSON(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

package scraper

import (
	"os"
	"path/filepath"
	"testing"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

func TestParseTerrainFeed(t *testing.T) {
	payload, err := parseTerrainFeed(fixture(t, "terrain_feed.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload == nil {
		t.Fatal("expected payload, got nil")
	}

	if payload.ResortName != "Alpine Meadows" {
		t.Fatalf("unexpected resort name %q", payload.ResortName)
	}
	if len(payload.Areas) != 2 {
		t.Fatalf("expected 2 areas, got %d", len(payload.Areas))
	}

	front := payload.Areas[0]
	if front.Name != "Front Side" || len(front.Trails) != 2 || len(front.Lifts) != 1 {
		t.Fatalf("unexpected front side shape: %+v", front)
	}

	cruiser := front.Trails[0]
	if cruiser.Difficulty != "Blue" {
		t.Fatalf("expected difficulty from TrailIcon, got %q", cruiser.Difficulty)
	}
	if cruiser.EffectiveStatus() != "Open" {
		t.Fatalf("unexpected status %q", cruiser.EffectiveStatus())
	}
	if g := cruiser.EffectiveGrooming(); g == nil || *g != "FirstTracks" {
		t.Fatalf("expected grooming FirstTracks, got %v", g)
	}

	ridge := front.Trails[1]
	if ridge.EffectiveStatus() != "closed" {
		t.Fatalf("expected closed derived from IsOpen, got %q", ridge.EffectiveStatus())
	}
	if ridge.EffectiveGrooming() != nil {
		t.Fatal("expected no grooming status for ungroomed trail")
	}

	lift := front.Lifts[0]
	if lift.Capacity != 4 {
		t.Fatalf("expected string capacity coerced to 4, got %d", lift.Capacity)
	}
	if lift.WaitTime == nil || *lift.WaitTime != 5 {
		t.Fatalf("expected wait 5, got %v", lift.WaitTime)
	}
	if lift.OpenTime != "8:30 AM" || lift.CloseTime != "4:00 PM" {
		t.Fatalf("unexpected hours %s-%s", lift.OpenTime, lift.CloseTime)
	}
}

func TestParseTerrainFeed_Empty(t *testing.T) {
	payload, err := parseTerrainFeed([]byte(`{"Name":"Alpine Meadows","MountainAreas":[]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload != nil {
		t.Fatalf("empty feed should yield nil payload, got %+v", payload)
	}
}

func TestParseTerrainFeed_Malformed(t *testing.T) {
	if _, err := parseTerrainFeed([]byte(`{"MountainAreas": "nope"}`)); err == nil {
		t.Fatal("expected error for malformed feed")
	}
}

func TestParseSnowFeed(t *testing.T) {
	payload, err := parseSnowFeed(fixture(t, "snow_report.json"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if payload.Conditions != "Packed Powder" {
		t.Fatalf("unexpected conditions %q", payload.Conditions)
	}
	if payload.Snowfall.OvernightIn != 3 || payload.Snowfall.OvernightCm != 8 {
		t.Fatalf("overnight totals wrong: %+v", payload.Snowfall)
	}
	if payload.Snowfall.Last24In != 5 {
		t.Fatalf("numeric inches should parse too, got %v", payload.Snowfall.Last24In)
	}
	if payload.Snowfall.SeasonIn != 102 {
		t.Fatalf("unexpected season total %v", payload.Snowfall.SeasonIn)
	}
	if payload.BaseDepth.In != 48 || payload.BaseDepth.Cm != 122 {
		t.Fatalf("unexpected base depth %+v", payload.BaseDepth)
	}

	if len(payload.Forecast) != 1 {
		t.Fatalf("expected 1 forecast location, got %d", len(payload.Forecast))
	}
	summit := payload.Forecast[0]
	if summit.Name != "Summit" || len(summit.Days) != 2 {
		t.Fatalf("unexpected forecast shape: %+v", summit)
	}
	if summit.Days[0].Date != "2025-01-15" || summit.Days[0].SnowIn != 4 {
		t.Fatalf("unexpected first day: %+v", summit.Days[0])
	}
	if summit.Days[1].LowF != 18 {
		t.Fatalf("string temp should parse, got %v", summit.Days[1].LowF)
	}
}

func TestParseSnowFeed_MissingTotals(t *testing.T) {
	payload, err := parseSnowFeed([]byte(`{
		"SurfaceCondition": "Spring Snow",
		"OvernightSnowfall": { "Inches": "--", "Centimeters": "N/A" }
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.Snowfall.OvernightIn != 0 {
		t.Fatalf("placeholder totals should read as zero, got %v", payload.Snowfall.OvernightIn)
	}
}

func TestExtractEmbeddedObject(t *testing.T) {
	blob, err := extractEmbeddedObject(string(fixture(t, "status_page.html")), "FR.TerrainStatusFeed")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	payload, err := parseTerrainFeed(blob)
	if err != nil {
		t.Fatalf("parse extracted blob: %v", err)
	}
	if payload == nil || len(payload.Areas) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Areas[0].Trails[0].Name != "Cruiser" {
		t.Fatalf("unexpected trail: %+v", payload.Areas[0].Trails[0])
	}
}

func TestExtractEmbeddedObject_NotPresent(t *testing.T) {
	html := `<html><body><script>var x = 1;</script></body></html>`
	if _, err := extractEmbeddedObject(html, "FR.TerrainStatusFeed"); err == nil {
		t.Fatal("expected error when object is absent")
	}
}

func TestCutAssignment_BracesInStrings(t *testing.T) {
	script := `
		var label = "before";
		FR.SnowReport = { "SurfaceCondition": "icy {hard}", "note": "it's {odd}" };
		var after = 2;
	`
	blob := cutAssignment(script, "FR.SnowReport")
	if blob == nil {
		t.Fatal("expected a blob")
	}

	payload, err := parseSnowFeed(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.Conditions != "icy {hard}" {
		t.Fatalf("unexpected conditions %q", payload.Conditions)
	}
}

func TestCutAssignment_MentionWithoutAssignment(t *testing.T) {
	script := `
		console.log("FR.SnowReport loading");
		FR.SnowReport = { "SurfaceCondition": "Powder" };
	`
	blob := cutAssignment(script, "FR.SnowReport")
	if blob == nil {
		t.Fatal("expected the later assignment to be found")
	}
	payload, err := parseSnowFeed(blob)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if payload.Conditions != "Powder" {
		t.Fatalf("unexpected conditions %q", payload.Conditions)
	}
}

package catalog

import (
	"path/filepath"
	"testing"

	"github.com/tracklab/trackheat/internal/models"
	"github.com/tracklab/trackheat/internal/spatial"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRunLifecycle(t *testing.T) {
	c := openTestCatalog(t)

	bounds := spatial.Bounds{MinLat: 52.3, MinLon: 13.1, MaxLat: 52.7, MaxLon: 13.8}
	runID, err := c.BeginRun(bounds, 1000, 760)
	if err != nil {
		t.Fatal(err)
	}
	if runID == 0 {
		t.Fatal("run id is zero")
	}

	err = c.FinishRun(runID, models.RunStatsSnapshot{
		FilesSeen:      3,
		TracksDecoded:  2,
		DecodeFailures: 1,
		PointsTotal:    1500,
		PointsDropped:  12,
		FramesWritten:  300,
	})
	if err != nil {
		t.Fatal(err)
	}

	runs, err := c.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns returned %d runs, want 1", len(runs))
	}
	r := runs[0]
	if r.ID != runID {
		t.Errorf("ID = %d, want %d", r.ID, runID)
	}
	if r.Bounds != bounds {
		t.Errorf("Bounds = %+v, want %+v", r.Bounds, bounds)
	}
	if r.Width != 1000 || r.Height != 760 {
		t.Errorf("grid = %dx%d", r.Width, r.Height)
	}
	if r.StartedAt == "" || r.FinishedAt == "" {
		t.Errorf("timestamps not recorded: %+v", r)
	}
	if r.TracksDecoded != 2 || r.PointsTotal != 1500 || r.FramesWritten != 300 {
		t.Errorf("counters not persisted: %+v", r)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	c := openTestCatalog(t)

	bounds := spatial.Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := c.BeginRun(bounds, 100, 100)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := c.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListRuns(2) returned %d runs", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Errorf("runs not newest first: %d, %d", runs[0].ID, runs[1].ID)
	}
}

func TestRecordAndListFiles(t *testing.T) {
	c := openTestCatalog(t)

	runID, err := c.BeginRun(spatial.Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}, 100, 100)
	if err != nil {
		t.Fatal(err)
	}

	records := []models.IngestRecord{
		{Path: "tracks/b.gpx", Status: "ok", Points: 420, Meters: 10250.5},
		{Path: "tracks/a.gpx", Status: "failed", Error: "no track points"},
	}
	for _, rec := range records {
		if err := c.RecordFile(runID, rec); err != nil {
			t.Fatal(err)
		}
	}

	got, err := c.ListFiles(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("ListFiles returned %d records, want 2", len(got))
	}
	// Listed in path order.
	if got[0].Path != "tracks/a.gpx" || got[0].Status != "failed" || got[0].Error != "no track points" {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].Path != "tracks/b.gpx" || got[1].Points != 420 || got[1].Meters != 10250.5 || got[1].Error != "" {
		t.Errorf("second record = %+v", got[1])
	}

	// Files belong to their run only.
	otherID, err := c.BeginRun(spatial.Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if recs, err := c.ListFiles(otherID); err != nil || len(recs) != 0 {
		t.Errorf("new run has %d file records, err=%v", len(recs), err)
	}
}

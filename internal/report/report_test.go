package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/present"
)

func testLayer() present.FeatureCollection {
	return present.DetectionsFC([]model.Detection{
		{Lat: -12.5, Lon: 130.8, Date: "2025-10-02"},
		{Lat: -12.6, Lon: 130.9, Date: "2025-10-02"},
		{Lat: -12.7, Lon: 131.0, Date: "2025-10-03"},
	})
}

func TestDailyCounts(t *testing.T) {
	dates, counts := DailyCounts(testLayer())
	if len(dates) != 2 || dates[0] != "2025-10-02" || dates[1] != "2025-10-03" {
		t.Fatalf("dates=%v", dates)
	}
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("counts=%v", counts)
	}
}

func TestRender_ProducesHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "Dark Vessel Activity", testLayer()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "echarts") {
		t.Fatal("rendered page does not reference echarts")
	}
	if !strings.Contains(out, "2025-10-02") {
		t.Fatal("rendered page missing chart data")
	}
}

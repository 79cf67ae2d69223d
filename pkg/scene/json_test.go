package scene

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestReadRecordsDefaultsID(t *testing.T) {
	in := `{"records":[
		{"group":"Power","node":"PSU"},
		{"group":"Power","node":"Battery","id":"custom-id"}
	]}`
	records, err := ReadRecords(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].ID != "PowerPSU" {
		t.Errorf("defaulted ID = %q", records[0].ID)
	}
	if records[1].ID != "custom-id" {
		t.Errorf("explicit ID = %q", records[1].ID)
	}
}

func TestReadRecordsRejectsMalformedJSON(t *testing.T) {
	if _, err := ReadRecords(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}

func TestRecordFileRoundTrip(t *testing.T) {
	records := []Record{
		{Group: "A", Node: "x", ID: "A/x", LinkedID: "B/y", LinkLabel: "bus", LinkArrow: ArrowBoth},
		{Group: "B", Node: "y", ID: "B/y", HiddenNode: true},
	}
	path := filepath.Join(t.TempDir(), "records.json")
	if err := WriteRecordsFile(records, path); err != nil {
		t.Fatalf("WriteRecordsFile: %v", err)
	}
	got, err := ReadRecordsFile(path)
	if err != nil {
		t.Fatalf("ReadRecordsFile: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("records = %d, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestReadRecordsFileMissing(t *testing.T) {
	if _, err := ReadRecordsFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

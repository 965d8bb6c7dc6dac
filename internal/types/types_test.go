package types

import (
	"testing"
	"time"
)

func TestParsePartition(t *testing.T) {
	cases := []struct {
		in   string
		want Partition
		ok   bool
	}{
		{in: "Nutrition", want: PartitionNutrition, ok: true},
		{in: "vision_training", want: PartitionVisionTraining, ok: true},
		{in: "breath-sessions", want: PartitionBreathSessions, ok: true},
		{in: "  MEMORY   training ", want: PartitionMemoryTraining, ok: true},
		{in: "finance", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := ParsePartition(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePartition(%q)=(%q,%v), want (%q,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUserFolderMapRoundTrip(t *testing.T) {
	u := &User{ID: "u1"}
	if got := u.FolderMap(); len(got) != 0 {
		t.Fatalf("empty user: want empty map, got %v", got)
	}
	if err := u.SetFolderMap(map[Partition]string{PartitionPeptides: "f-1", PartitionSleep: "f-2"}); err != nil {
		t.Fatalf("SetFolderMap: %v", err)
	}
	got := u.FolderMap()
	if got[PartitionPeptides] != "f-1" || got[PartitionSleep] != "f-2" || len(got) != 2 {
		t.Fatalf("FolderMap=%v", got)
	}

	u.VaultFolders = []byte(`{"Bogus":"x","Sleep":""}`)
	if got := u.FolderMap(); len(got) != 0 {
		t.Fatalf("unknown/empty entries should be dropped, got %v", got)
	}
}

func TestUserLocationFallsBackToUTC(t *testing.T) {
	if loc := (&User{TimeZone: "Not/AZone"}).Location(); loc != time.UTC {
		t.Fatalf("want UTC, got %v", loc)
	}
	if _, err := time.LoadLocation("America/New_York"); err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if loc := (&User{TimeZone: "America/New_York"}).Location(); loc.String() != "America/New_York" {
		t.Fatalf("want America/New_York, got %v", loc)
	}
}

func TestLoggingIntentAccessors(t *testing.T) {
	li := &LoggingIntent{Data: map[string]any{"dosage": 250.0, "peptide": "BPC-157", "sets": 3}}
	if v, ok := li.Float("dosage"); !ok || v != 250 {
		t.Fatalf("Float(dosage)=%v,%v", v, ok)
	}
	if v, ok := li.Int("sets"); !ok || v != 3 {
		t.Fatalf("Int(sets)=%v,%v", v, ok)
	}
	if li.String("dosage") != "250" {
		t.Fatalf("String(dosage)=%q", li.String("dosage"))
	}
	var nilIntent *LoggingIntent
	if nilIntent.String("x") != "" {
		t.Fatalf("nil intent should read empty")
	}
}

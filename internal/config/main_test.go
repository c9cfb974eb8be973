package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	chart := filepath.Join(t.TempDir(), "chart.notes")
	if err := os.WriteFile(chart, []byte("0\tRH\tnote\n"), 0o644); nil != err {
		t.Fatal(err)
	}

	command, err := Parse([]string{"play", "--tempo", "120", "-b", "3", chart})
	if nil != err {
		t.Fatal(err)
	}
	if command != Play.FullCommand() || *PlayChart != chart {
		t.Errorf("unexpected command %v %v", command, *PlayChart)
	}
	tempo := Tempo()
	if tempo.BPM != 120 || tempo.BeatsPerBar != 3 {
		t.Errorf("unexpected tempo %+v", tempo)
	}
	if Delay() != 500*time.Millisecond {
		t.Errorf("unexpected delay %v", Delay())
	}
	if *Early != 85 || *Late != 115 {
		t.Errorf("unexpected thresholds %v %v", *Early, *Late)
	}
}

func TestValidate(t *testing.T) {
	bpm, bars, early, late, delay := *BPM, *BeatsPerBar, *Early, *Late, *FinishDelay
	defer func() { *BPM, *BeatsPerBar, *Early, *Late, *FinishDelay = bpm, bars, early, late, delay }()

	*BPM, *BeatsPerBar, *Early, *Late, *FinishDelay = 60, 4, 85, 115, 0
	if err := Validate(); nil != err {
		t.Errorf("unexpected error %v", err)
	}
	*BPM = 0
	if err := Validate(); nil == err {
		t.Error("expected zero tempo to fail")
	}
	*BPM = 60
	*Early = 200
	if err := Validate(); nil == err {
		t.Error("expected early above late to fail")
	}
}

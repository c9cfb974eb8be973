package score

import (
	"path/filepath"
	"testing"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

func TestStore(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "scores.db"))
	if nil != err {
		t.Fatal(err)
	}
	defer s.Close()

	steps := []*game.Step{
		{Moment: 0, Items: []*game.Item{{Kind: game.Note, Lane: game.RightHand}}},
		{Moment: 1, Items: []*game.Item{{Kind: game.Rest, Lane: game.LeftHand}}},
	}
	sum := Hash(steps)
	tempo := game.Tempo{BPM: 90, BeatsPerBar: 3}
	judgements := []game.Judgement{
		{Step: 0, Lane: game.RightHand, Outcome: game.Hit, Offset: -12 * time.Millisecond},
		{Step: 1, Lane: game.LeftHand, Outcome: game.Redundant},
	}

	id, err := s.Save(sum, tempo, 69, judgements)
	if nil != err {
		t.Fatal(err)
	}
	if _, err := s.Save("other", tempo, 10, nil); nil != err {
		t.Fatal(err)
	}

	histories, err := s.Load(sum)
	if nil != err {
		t.Fatal(err)
	}
	if len(histories) != 1 {
		t.Fatalf("expected one result, got %v", len(histories))
	}
	h := histories[0]
	if h.ID != id || h.Tempo != tempo || h.Percentage != 69 || h.Hits != 1 || h.Redundant != 1 || h.Misses != 0 {
		t.Errorf("unexpected history %+v", h)
	}
	if len(h.Inputs) != 1 || h.Inputs[0].Lane != game.RightHand || h.Inputs[0].Offset != -12*time.Millisecond {
		t.Errorf("unexpected inputs %v", h.Inputs)
	}
}

func TestHash(t *testing.T) {
	a := []*game.Step{{Moment: 0, Items: []*game.Item{{Kind: game.Note, Lane: game.RightHand}}}}
	b := []*game.Step{{Moment: 0, Items: []*game.Item{{Kind: game.Note, Lane: game.LeftHand}}}}
	c := []*game.Step{{Moment: 0, Marker: "ignored", Items: []*game.Item{{Kind: game.Note, Lane: game.RightHand}}}}
	if Hash(a) == Hash(b) {
		t.Error("different charts share a hash")
	}
	if Hash(a) != Hash(c) {
		t.Error("display handles changed the hash")
	}
}

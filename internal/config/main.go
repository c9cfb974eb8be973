package config

import (
	"fmt"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("sightbeat", "Sight reading rhythm trainer").Version("0.3.0")

	Play    = app.Command("play", "Play a chart").Default()
	History = app.Command("history", "Show previous results for a chart")

	PlayChart    = Play.Arg("chart", "Event stream (.notes) or midi file (.mid)").Required().ExistingFile()
	HistoryChart = History.Arg("chart", "Event stream (.notes) or midi file (.mid)").Required().ExistingFile()

	BPM             = app.Flag("tempo", "Beats per minute").Default("60").Short('t').Float64()
	BeatsPerBar     = app.Flag("beats-per-bar", "Beats in a bar").Default("4").Short('b').Int()
	Early           = app.Flag("early", "Percent score below which a hit is early").Default("85").Float64()
	Late            = app.Flag("late", "Percent score from which a hit is late").Default("115").Float64()
	MissedNoteScore = app.Flag("missed-note-score", "Raw score applied for a missed note").Default("0").Float64()
	PlayedRestScore = app.Flag("played-rest-score", "Raw score applied for playing on a rest").Default("50").Float64()
	FinishDelay     = app.Flag("finish-delay", "Time after the last step before finishing, one beat when zero").Default("0s").Duration()
	LeftKeys        = app.Flag("keys-left", "Keys played by the left hand").Default("z").String()
	RightKeys       = app.Flag("keys-right", "Keys played by the right hand").Default("m").String()
	MidiPort        = app.Flag("midi-port", "Midi input port number, negative to disable").Default("-1").Int()
	Metronome       = app.Flag("metronome", "Play a metronome").Default("true").Bool()
	ColumnSpacing   = app.Flag("spacing", "Columns between steps").Default("3").Short('S').Uint16()
	Database        = app.Flag("database", "Results database").Default("./scores.db").String()
	LogFile         = app.Flag("log", "Log file used while playing").Default("./sightbeat.log").String()
)

// Parse reads the command line and returns the selected command
func Parse(args []string) (string, error) {
	command, err := app.Parse(args)
	if nil != err {
		return "", err
	}
	if err := Validate(); nil != err {
		return "", err
	}
	return command, nil
}

func Validate() error {
	if *BPM <= 0 {
		return fmt.Errorf("tempo must be positive, got %v", *BPM)
	}
	if *BeatsPerBar <= 0 {
		return fmt.Errorf("beats per bar must be positive, got %v", *BeatsPerBar)
	}
	if *Early > *Late {
		return fmt.Errorf("early threshold %v is above late threshold %v", *Early, *Late)
	}
	if *FinishDelay < 0 {
		return fmt.Errorf("finish delay must not be negative, got %v", *FinishDelay)
	}
	return nil
}

func Tempo() game.Tempo {
	return game.Tempo{BPM: *BPM, BeatsPerBar: *BeatsPerBar}
}

// Delay is the configured finish delay, defaulting to one beat
func Delay() time.Duration {
	if *FinishDelay == 0 {
		return Tempo().BeatLength()
	}
	return *FinishDelay
}

package score

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"git.lost.host/meutraa/sightbeat/internal/game"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the results of finished sessions
type Store struct {
	db *sql.DB
}

type InputsCompact struct {
	Lane  game.Lane
	Times []time.Duration
}

// Lanes keep the order in which they were first played
func compactInputs(inputs []Input) []InputsCompact {
	ins := []InputsCompact{}
	index := map[game.Lane]int{}
	for _, i := range inputs {
		idx, ok := index[i.Lane]
		if !ok {
			idx = len(ins)
			index[i.Lane] = idx
			ins = append(ins, InputsCompact{Lane: i.Lane})
		}
		ins[idx].Times = append(ins[idx].Times, i.Offset)
	}
	return ins
}

func uncompactInputs(inputs []InputsCompact) []Input {
	ins := []Input{}
	for _, i := range inputs {
		for _, t := range i.Times {
			ins = append(ins, Input{Lane: i.Lane, Offset: t})
		}
	}
	return ins
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	initStatement := `
	create table if not exists results
	  (
		  id text not null primary key,
		  sum text,
		  bpm real,
		  beats_per_bar integer,
		  percentage real,
		  hits integer,
		  misses integer,
		  redundant integer,
		  played integer,
		  inputs blob
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("unable to create results table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if nil != s.db {
		return s.db.Close()
	}
	return nil
}

// Hash identifies a chart by its steps, independent of the file it came from
func Hash(steps []*game.Step) string {
	var b strings.Builder
	for _, step := range steps {
		fmt.Fprintf(&b, "%v:", step.Moment)
		for _, item := range step.Items {
			fmt.Fprintf(&b, "%v/%v,", item.Lane, item.Kind)
		}
		b.WriteString(";")
	}
	sum := sha256.Sum256([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (s *Store) Save(sum string, tempo game.Tempo, percentage float64, judgements []game.Judgement) (string, error) {
	data, err := json.Marshal(compactInputs(Inputs(judgements)))
	if nil != err {
		return "", fmt.Errorf("unable to marshal inputs: %w", err)
	}
	id := uuid.New().String()
	c := Count(judgements)
	_, err = s.db.Exec(
		"insert into results(id, sum, bpm, beats_per_bar, percentage, hits, misses, redundant, played, inputs) values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id, sum, tempo.BPM, tempo.BeatsPerBar, percentage, c.Hits, c.Misses, c.Redundant, time.Now().Unix(), data,
	)
	if nil != err {
		return "", fmt.Errorf("unable to save result: %w", err)
	}
	return id, nil
}

// Load returns the results for a chart, most recent first
func (s *Store) Load(sum string) ([]History, error) {
	histories := []History{}
	rows, err := s.db.Query(
		"select id, sum, bpm, beats_per_bar, percentage, hits, misses, redundant, played, inputs from results where sum = ? order by played desc",
		sum,
	)
	if nil != err {
		return nil, fmt.Errorf("unable to load results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h History
		var played int64
		var inputs []byte
		if err := rows.Scan(&h.ID, &h.Sum, &h.Tempo.BPM, &h.Tempo.BeatsPerBar, &h.Percentage, &h.Hits, &h.Misses, &h.Redundant, &played, &inputs); nil != err {
			return nil, err
		}
		var ns []InputsCompact
		if err := json.Unmarshal(inputs, &ns); nil != err {
			return nil, fmt.Errorf("unable to unmarshal inputs of %v: %w", h.ID, err)
		}
		h.Inputs = uncompactInputs(ns)
		h.Played = time.Unix(played, 0)
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

package parser

import (
	"io"
	"os"

	"git.lost.host/meutraa/sightbeat/internal/game"
)

type Parser interface {
	Parse(r io.Reader) ([]game.Event, error)
}

func ParseFile(p Parser, file string) ([]game.Event, error) {
	f, err := os.Open(file)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f)
}

package input

import (
	"log"
	"time"

	"github.com/eiannone/keyboard"
)

// ReadKeyboard puts the terminal into raw mode and sends every key press
// to events, stamped with now. The returned function restores the terminal.
func ReadKeyboard(now func() time.Duration, events chan<- Raw) (func(), error) {
	keys, err := keyboard.GetKeys(128)
	if nil != err {
		return nil, err
	}

	s := newSink(events)
	go forwardKeys(keys, now, s)

	return func() {
		s.close()
		if err := keyboard.Close(); nil != err {
			log.Println("unable to close keyboard", err)
		}
	}, nil
}

func forwardKeys(keys <-chan keyboard.KeyEvent, now func() time.Duration, s *sink) {
	for {
		var key keyboard.KeyEvent
		var ok bool
		select {
		case <-s.done:
			return
		case key, ok = <-keys:
			if !ok {
				return
			}
		}
		if nil != key.Err {
			log.Println("unable to read keyboard input", key.Err)
			return
		}
		raw := Raw{Source: Keyboard, Key: key.Rune, Time: now()}
		switch key.Key {
		case keyboard.KeyEsc, keyboard.KeyCtrlC:
			raw.Escape = true
		case keyboard.KeySpace:
			raw.Key = ' '
		}
		if !s.send(raw) {
			return
		}
	}
}

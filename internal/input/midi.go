package input

import (
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

// ReadMidi listens for note starts on the midi input port with the given
// number. The returned function stops listening and closes the driver.
func ReadMidi(port int, now func() time.Duration, events chan<- Raw) (func(), error) {
	in, err := midi.InPort(port)
	if nil != err {
		return nil, fmt.Errorf("unable to find midi input %v: %w", port, err)
	}

	s := newSink(events)
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		if msg.GetNoteStart(&ch, &key, &vel) {
			s.send(Raw{Source: Midi, Note: key, Time: now()})
		}
	})
	if nil != err {
		midi.CloseDriver()
		return nil, fmt.Errorf("unable to listen to midi input %v: %w", port, err)
	}

	return func() {
		s.close()
		stop()
		midi.CloseDriver()
	}, nil
}

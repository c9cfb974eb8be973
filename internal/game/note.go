package game

type Kind uint8

const (
	Note Kind = iota
	Rest
)

func (k Kind) String() string {
	switch k {
	case Note:
		return "note"
	case Rest:
		return "rest"
	}
	return "unknown"
}

// Handle is an opaque reference into whatever draws the chart
type Handle any

type Item struct {
	Kind     Kind
	Lane     Lane
	Duration float64 // In whole notes, as produced by the event stream
	Visual   Handle
}

func (i *Item) IsPlayed() bool {
	return i.Kind == Note
}

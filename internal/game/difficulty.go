package game

type Lane string

const (
	LeftHand  Lane = "LH"
	RightHand Lane = "RH"
	AnyHand   Lane = "AH"

	// Counts is the origin used by the event stream for beat markers.
	// Events with this lane become steps without items.
	Counts Lane = "Counts"
)

var LaneMap = map[string]Lane{
	"LH":     LeftHand,
	"RH":     RightHand,
	"AH":     AnyHand,
	"Counts": Counts,
}

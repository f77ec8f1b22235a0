package core

import "fmt"

// Status is the lifecycle stage of a relay session.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusPlaying:
		return "playing"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "waiting":
		*s = StatusWaiting
	case "playing":
		*s = StatusPlaying
	case "finished":
		*s = StatusFinished
	default:
		return fmt.Errorf("unknown status %q", b)
	}
	return nil
}

package enum

// FeedState connecting, live, simulated, error
type FeedState uint8

const (
	_feed_state_beg FeedState = iota
	FeedStateConnecting
	FeedStateLive
	FeedStateSimulated
	FeedStateError
	_feed_state_end
)

func (s FeedState) IsAvailable() bool {
	return s > _feed_state_beg && s < _feed_state_end
}

func (s FeedState) String() string {
	switch s {
	case FeedStateConnecting:
		return "connecting"
	case FeedStateLive:
		return "live"
	case FeedStateSimulated:
		return "simulated"
	case FeedStateError:
		return "error"
	default:
		return "unknown"
	}
}

// FeedSource live, simulation
type FeedSource uint8

const (
	_feed_source_beg FeedSource = iota
	FeedSourceLive
	FeedSourceSimulation
	_feed_source_end
)

func (s FeedSource) IsAvailable() bool {
	return s > _feed_source_beg && s < _feed_source_end
}

func (s FeedSource) String() string {
	switch s {
	case FeedSourceLive:
		return "live"
	case FeedSourceSimulation:
		return "simulation"
	default:
		return "unknown"
	}
}

func (s FeedSource) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *FeedSource) UnmarshalJSON(b []byte) error {
	switch unquote(b) {
	case "live":
		*s = FeedSourceLive
	case "simulation":
		*s = FeedSourceSimulation
	default:
		*s = _feed_source_beg
	}
	return nil
}

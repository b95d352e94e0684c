package engine

import (
	"github.com/farolengine/farol/internal/events"
	"github.com/farolengine/farol/internal/infra/storage"
	"github.com/farolengine/farol/internal/network"
	"github.com/farolengine/farol/internal/platform/logger"
)

// InputSource feeds the pad one bitmask per tick. The engine polls it
// exactly once per simulation step, so implementations can treat the
// tick number as monotonic.
type InputSource interface {
	Buttons(tick uint64) uint8
}

// LiveSource drains the hub's input channel. The last bitmask seen wins
// the tick; pad claims and releases are journaled as they drain so the
// recording carries who held the pad and when.
type LiveSource struct {
	inputs  <-chan network.InputMessage
	journal *events.Journal
	logger  *logger.Logger
	current uint8
}

// NewLiveSource wires a source to the hub's engine-bound channel.
func NewLiveSource(inputs <-chan network.InputMessage, journal *events.Journal, log *logger.Logger) *LiveSource {
	return &LiveSource{
		inputs:  inputs,
		journal: journal,
		logger:  log,
	}
}

// Buttons implements InputSource.
func (s *LiveSource) Buttons(tick uint64) uint8 {
	for {
		select {
		case msg := <-s.inputs:
			switch msg.Kind {
			case network.InputButtons:
				s.current = msg.Buttons
			case network.InputPadClaimed:
				s.journal.Append(tick, events.EventPadClaimed, msg.Remote, nil)
				s.logger.Info("Pad claimed by " + msg.Remote)
			case network.InputPadReleased:
				// Nobody is holding the pad anymore.
				s.current = 0
				s.journal.Append(tick, events.EventPadReleased, msg.Remote, nil)
				s.logger.Info("Pad released by " + msg.Remote)
			}
		default:
			return s.current
		}
	}
}

// ReplaySource replays a recorded input timeline. Each sample takes
// effect on its tick and holds until the next one, which reproduces the
// recorded pad byte-for-byte as long as the tick rate matches.
type ReplaySource struct {
	samples []storage.InputSample
	idx     int
	current uint8
}

// NewReplaySource builds a source from a session's input timeline.
func NewReplaySource(samples []storage.InputSample) *ReplaySource {
	return &ReplaySource{samples: samples}
}

// Buttons implements InputSource.
func (s *ReplaySource) Buttons(tick uint64) uint8 {
	for s.idx < len(s.samples) && s.samples[s.idx].Tick <= tick {
		s.current = s.samples[s.idx].Buttons
		s.idx++
	}
	return s.current
}

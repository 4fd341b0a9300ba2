package lattice

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/phasebridge/internal/constants"
	"github.com/nvandessel/phasebridge/internal/precision"
)

// Serialization uses decimal strings so a round trip reproduces the state
// exactly at working precision. float64 never enters the payload.

type complexJSON struct {
	Re string `json:"re"`
	Im string `json:"im"`
}

type memoryJSON struct {
	TapeSize       int    `json:"tape_size"`
	EvolutionCount uint64 `json:"evolution_count"`
	ConsensusSteps int    `json:"consensus_steps"`
	PhaseVariance  string `json:"phase_variance"`
	Locked         bool   `json:"locked"`
}

type stateJSON struct {
	Evo             uint64            `json:"evo"`
	Seed            int64             `json:"seed"`
	TimestampNS     int64             `json:"timestamp_ns"`
	Dimensions      []complexJSON     `json:"dimensions"`
	Phases          []string          `json:"phases"`
	Freqs           []string          `json:"freqs"`
	PhaseVelocities []string          `json:"phase_velocities"`
	Memory          memoryJSON        `json:"memory"`
	Payload         map[string]string `json:"payload,omitempty"`
}

// Marshal serializes the state for content-addressed persistence. The seed
// and timestamp ride along so a consumer can audit provenance.
func (s *State) Marshal(seed int64, timestampNS int64) ([]byte, error) {
	out := stateJSON{
		Evo:         s.Memory.EvolutionCount,
		Seed:        seed,
		TimestampNS: timestampNS,
		Memory: memoryJSON{
			TapeSize:       s.Memory.TapeSize,
			EvolutionCount: s.Memory.EvolutionCount,
			ConsensusSteps: s.Memory.ConsensusSteps,
			PhaseVariance:  s.Memory.PhaseVariance.String(),
			Locked:         s.Memory.Locked,
		},
		Payload: s.Payload,
	}
	for i := 0; i < constants.Dimensions; i++ {
		out.Dimensions = append(out.Dimensions, complexJSON{
			Re: s.Dimensions[i].Re.String(),
			Im: s.Dimensions[i].Im.String(),
		})
		out.Phases = append(out.Phases, s.Phases[i].String())
		out.Freqs = append(out.Freqs, s.Freqs[i].String())
		out.PhaseVelocities = append(out.PhaseVelocities, s.PhaseVelocities[i].String())
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return data, nil
}

// Unmarshal reconstructs a State from a persisted payload. A malformed
// payload returns an error; callers fall back to a fresh state per the
// checkpoint contract.
func Unmarshal(ctx *precision.Context, data []byte) (*State, error) {
	var in stateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decoding state payload: %w", err)
	}

	if len(in.Dimensions) != constants.Dimensions ||
		len(in.Phases) != constants.Dimensions ||
		len(in.Freqs) != constants.Dimensions {
		return nil, fmt.Errorf("state payload has %d/%d/%d dimensions/phases/freqs, want %d of each",
			len(in.Dimensions), len(in.Phases), len(in.Freqs), constants.Dimensions)
	}
	if in.Memory.TapeSize < 0 || in.Memory.TapeSize > constants.MaxTapeSize {
		return nil, fmt.Errorf("state payload tape size %d out of range", in.Memory.TapeSize)
	}

	variance, err := ctx.Parse(in.Memory.PhaseVariance)
	if err != nil {
		return nil, fmt.Errorf("decoding phase variance: %w", err)
	}

	s := &State{
		ctx: ctx,
		Memory: Memory{
			TapeSize:       in.Memory.TapeSize,
			EvolutionCount: in.Memory.EvolutionCount,
			ConsensusSteps: in.Memory.ConsensusSteps,
			PhaseVariance:  variance,
			Locked:         in.Memory.Locked,
		},
		Payload: in.Payload,
	}
	if s.Payload == nil {
		s.Payload = map[string]string{}
	}

	for i := 0; i < constants.Dimensions; i++ {
		re, err := ctx.Parse(in.Dimensions[i].Re)
		if err != nil {
			return nil, fmt.Errorf("decoding dimension %d: %w", i, err)
		}
		im, err := ctx.Parse(in.Dimensions[i].Im)
		if err != nil {
			return nil, fmt.Errorf("decoding dimension %d: %w", i, err)
		}
		s.Dimensions[i] = ctx.NewComplex(re, im)

		if s.Phases[i], err = ctx.Parse(in.Phases[i]); err != nil {
			return nil, fmt.Errorf("decoding phase %d: %w", i, err)
		}
		if s.Freqs[i], err = ctx.Parse(in.Freqs[i]); err != nil {
			return nil, fmt.Errorf("decoding freq %d: %w", i, err)
		}
		if i < len(in.PhaseVelocities) {
			if s.PhaseVelocities[i], err = ctx.Parse(in.PhaseVelocities[i]); err != nil {
				return nil, fmt.Errorf("decoding phase velocity %d: %w", i, err)
			}
		} else {
			s.PhaseVelocities[i] = ctx.Zero()
		}
	}

	return s, nil
}

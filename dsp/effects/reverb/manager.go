package reverb

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-amp/dsp/buffer"
	"github.com/cwbudde/algo-amp/dsp/core"
	"github.com/cwbudde/algo-amp/dsp/param"
)

// Parameter ids polled by Manager.
const (
	ParamType     = "reverb.type"
	ParamDecay    = "reverb.decay"
	ParamSize     = "reverb.size"
	ParamPreDelay = "reverb.predelay" // ms
)

const (
	defaultCrossfadeSeconds = 0.5
	queueCapacity           = 4
)

// ManagerState is the reconfiguration state of a Manager.
type ManagerState int32

const (
	ManagerIdle ManagerState = iota
	ManagerParamsChanging
	ManagerCrossfadingIn
)

// String returns the state name.
func (s ManagerState) String() string {
	switch s {
	case ManagerIdle:
		return "idle"
	case ManagerParamsChanging:
		return "params-changing"
	case ManagerCrossfadingIn:
		return "crossfading-in"
	default:
		return fmt.Sprintf("ManagerState(%d)", int32(s))
	}
}

// ManagerOption mutates construction-time parameters.
type ManagerOption func(*managerConfig) error

type managerConfig struct {
	crossfadeSeconds float64
	roomOptions      []RoomOption
}

// WithCrossfadeSeconds sets the length of the room crossfade.
func WithCrossfadeSeconds(s float64) ManagerOption {
	return func(cfg *managerConfig) error {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("reverb crossfade must be > 0: %f", s)
		}

		cfg.crossfadeSeconds = s

		return nil
	}
}

// WithRoomOptions passes options to both rooms.
func WithRoomOptions(opts ...RoomOption) ManagerOption {
	return func(cfg *managerConfig) error {
		cfg.roomOptions = append(cfg.roomOptions, opts...)
		return nil
	}
}

type snapshot struct {
	typ   Type
	decay float64
	size  float64
	preMs float64
}

// Manager owns an active and a spare Room. Structural parameter changes are
// rendered into the spare and faded in over the active room; the old room
// is handed to the control thread through a RetireQueue and comes back as
// the next spare after Drain.
type Manager struct {
	src param.Source
	cfg managerConfig

	active   atomic.Pointer[Room]
	spare    *Room
	incoming *Room
	held     *Room

	retire  *RetireQueue
	recycle *RetireQueue

	state atomic.Int32
	ready atomic.Bool

	sampleRate float64
	last       snapshot
	pending    bool

	fadePos int
	fadeLen int

	dry   *buffer.Audio
	wetA  *buffer.Audio
	wetB  *buffer.Audio
	rooms [2]*Room
}

// NewManager returns a manager reading its controls from src.
func NewManager(src param.Source, opts ...ManagerOption) (*Manager, error) {
	if src == nil {
		return nil, fmt.Errorf("reverb manager needs a parameter source")
	}

	cfg := managerConfig{crossfadeSeconds: defaultCrossfadeSeconds}
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	var rooms [2]*Room
	for i := range rooms {
		r, err := NewRoom(DefaultParams(), cfg.roomOptions...)
		if err != nil {
			return nil, err
		}

		rooms[i] = r
	}

	retire, err := NewRetireQueue(queueCapacity)
	if err != nil {
		return nil, err
	}

	recycle, err := NewRetireQueue(queueCapacity)
	if err != nil {
		return nil, err
	}

	return &Manager{
		src:     src,
		cfg:     cfg,
		retire:  retire,
		recycle: recycle,
		rooms:   rooms,
	}, nil
}

// Prepare configures both rooms from the current parameter values and
// allocates the crossfade buffers. It must not run concurrently with
// Process or Drain.
func (m *Manager) Prepare(spec core.ProcessSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	m.ready.Store(false)

	m.sampleRate = spec.SampleRate
	m.last = m.poll()

	for m.retire.Pop() != nil {
	}

	for m.recycle.Pop() != nil {
	}

	p := m.paramsFor(m.last)
	for _, r := range m.rooms {
		r.SetReverbParams(p, true)

		if err := r.Prepare(spec); err != nil {
			return err
		}
	}

	channels := int(spec.NumChannels)
	block := int(spec.MaximumBlockSize)
	m.dry = buffer.New(channels, block)
	m.wetA = buffer.New(channels, block)
	m.wetB = buffer.New(channels, block)

	m.active.Store(m.rooms[0])
	m.spare = m.rooms[1]
	m.incoming = nil
	m.held = nil
	m.pending = false
	m.fadePos = 0
	m.fadeLen = max(1, int(math.Round(m.cfg.crossfadeSeconds*spec.SampleRate)))

	m.state.Store(int32(ManagerIdle))
	m.ready.Store(true)

	return nil
}

// Ready reports whether the manager and its active room are prepared.
func (m *Manager) Ready() bool {
	if !m.ready.Load() {
		return false
	}

	r := m.active.Load()

	return r != nil && r.Ready()
}

// State returns the reconfiguration state.
func (m *Manager) State() ManagerState { return ManagerState(m.state.Load()) }

// Active returns the room currently heard.
func (m *Manager) Active() *Room { return m.active.Load() }

// Drain resets retired rooms and hands them back as spares. It is called
// from the control thread and returns the number of rooms recycled. Until
// it runs, Process has no spare room and parameter changes stay pending.
func (m *Manager) Drain() int {
	n := 0

	for r := m.retire.Pop(); r != nil; r = m.retire.Pop() {
		r.Reset()

		if m.recycle.Push(r) {
			n++
		}
	}

	return n
}

func (m *Manager) poll() snapshot {
	return snapshot{
		typ:   Type(m.src.Choice(ParamType)),
		decay: m.src.Float(ParamDecay),
		size:  m.src.Float(ParamSize),
		preMs: m.src.Float(ParamPreDelay),
	}
}

func (m *Manager) preDelaySamples(ms float64) float64 {
	return max(ms, 0) * 0.001 * m.sampleRate
}

func (m *Manager) paramsFor(s snapshot) Params {
	return ParamsFor(s.typ, s.decay, s.size, m.preDelaySamples(s.preMs))
}

// update applies parameter changes seen since the last block.
func (m *Manager) update() {
	s := m.poll()

	if s.preMs != m.last.preMs {
		samples := m.preDelaySamples(s.preMs)
		m.active.Load().SetPreDelay(samples)

		if m.incoming != nil {
			m.incoming.SetPreDelay(samples)
		}
	}

	if s.typ != m.last.typ || s.decay != m.last.decay || s.size != m.last.size {
		m.pending = true
	}

	m.last = s

	if m.spare == nil {
		m.spare = m.recycle.Pop()
	}

	if m.held != nil && m.retire.Push(m.held) {
		m.held = nil
	}

	if !m.pending || m.spare == nil || m.State() != ManagerIdle {
		return
	}

	m.state.Store(int32(ManagerParamsChanging))
	m.spare.SetReverbParams(m.paramsFor(s), false)

	m.incoming = m.spare
	m.spare = nil
	m.pending = false
	m.fadePos = 0
	m.state.Store(int32(ManagerCrossfadingIn))
}

// Process mixes the reverb into buf with balanced dry/wet gains. An
// unprepared manager leaves buf untouched.
func (m *Manager) Process(buf *buffer.Audio, mix float64) {
	if !m.ready.Load() {
		return
	}

	m.update()

	n := min(buf.NumSamples(), m.dry.MaxSamples())
	channels := min(buf.NumChannels(), m.dry.NumChannels())

	m.dry.SetNumSamples(n)
	m.wetA.SetNumSamples(n)
	copyChannels(m.dry, buf, channels, n)
	copyChannels(m.wetA, buf, channels, n)

	active := m.active.Load()
	active.ProcessWet(m.wetA)

	if m.State() == ManagerCrossfadingIn {
		m.crossfade(channels, n)
	}

	dryGain, wetGain := BalancedGains(mix)
	for ch := range channels {
		out := buf.Channel(ch)[:n]
		dry := m.dry.Channel(ch)
		wet := m.wetA.Channel(ch)

		for i := range out {
			out[i] = dry[i]*dryGain + wet[i]*wetGain
		}
	}
}

// crossfade blends the incoming room's wet signal into wetA with an
// equal-power curve and swaps rooms once the fade completes.
func (m *Manager) crossfade(channels, n int) {
	m.wetB.SetNumSamples(n)
	copyChannels(m.wetB, m.dry, channels, n)
	m.incoming.ProcessWet(m.wetB)

	step := 1 / float64(m.fadeLen)
	for ch := range channels {
		a := m.wetA.Channel(ch)
		b := m.wetB.Channel(ch)

		for i := range a {
			t := min(float64(m.fadePos+i)*step, 1)
			s, c := math.Sincos(0.5 * math.Pi * t)
			a[i] = c*a[i] + s*b[i]
		}
	}

	m.fadePos += n
	if m.fadePos < m.fadeLen {
		return
	}

	old := m.active.Swap(m.incoming)
	m.incoming = nil

	if !m.retire.Push(old) {
		m.held = old
	}

	m.state.Store(int32(ManagerIdle))
}

func copyChannels(dst, src *buffer.Audio, channels, n int) {
	for ch := range channels {
		copy(dst.Channel(ch)[:n], src.Channel(ch)[:n])
	}
}

// Reset clears the tails of the active and incoming rooms without touching
// the crossfade position. Audio thread only.
func (m *Manager) Reset() {
	if !m.ready.Load() {
		return
	}

	m.active.Load().Reset()

	if m.incoming != nil {
		m.incoming.Reset()
	}
}

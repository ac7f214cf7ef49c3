package hw

import "sync"

// FakeSampler is a test double returning settable millivolt readings.
type FakeSampler struct {
	mu       sync.Mutex
	vrefMV   uint16
	signalMV uint16

	// ReadError, if set, will be returned by ReadMillivolts.
	ReadError error

	// Reads counts calls to ReadMillivolts.
	Reads int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSampler creates a FakeSampler with the given initial readings.
func NewFakeSampler(vrefMV, signalMV uint16) *FakeSampler {
	return &FakeSampler{vrefMV: vrefMV, signalMV: signalMV}
}

// Set changes the readings returned by subsequent reads.
func (f *FakeSampler) Set(vrefMV, signalMV uint16) {
	f.mu.Lock()
	f.vrefMV = vrefMV
	f.signalMV = signalMV
	f.mu.Unlock()
}

// ReadMillivolts returns the current fake readings.
func (f *FakeSampler) ReadMillivolts() (uint16, uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads++
	if f.ReadError != nil {
		return 0, 0, f.ReadError
	}
	return f.vrefMV, f.signalMV, nil
}

// Close marks the sampler as closed.
func (f *FakeSampler) Close() error {
	f.Closed = true
	return nil
}

// FakeOutputs records commanded output states for test assertions.
type FakeOutputs struct {
	mu     sync.Mutex
	states map[Output]bool

	// History records every Set call in order.
	History []OutputChange

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// OutputChange is one recorded Set call.
type OutputChange struct {
	Out Output
	On  bool
}

// NewFakeOutputs creates a FakeOutputs with everything off.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{states: make(map[Output]bool)}
}

// Set records the commanded state.
func (f *FakeOutputs) Set(out Output, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.states[out] = on
	f.History = append(f.History, OutputChange{Out: out, On: on})
	return nil
}

// Get returns the last commanded state.
func (f *FakeOutputs) Get(out Output) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[out]
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = make(map[Output]bool)
	f.Closed = true
	return nil
}

// FakeDoorSensor delivers scripted door transitions to the watch callback.
type FakeDoorSensor struct {
	mu sync.Mutex
	fn func(open bool)

	// Initial is the door state reported when Watch is called.
	Initial bool

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDoorSensor creates a FakeDoorSensor with the door closed.
func NewFakeDoorSensor() *FakeDoorSensor {
	return &FakeDoorSensor{}
}

// Watch stores the callback and reports the initial state.
func (f *FakeDoorSensor) Watch(fn func(open bool)) error {
	f.mu.Lock()
	f.fn = fn
	f.mu.Unlock()
	fn(f.Initial)
	return nil
}

// Trigger simulates a door edge.
func (f *FakeDoorSensor) Trigger(open bool) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(open)
	}
}

// Close marks the sensor as closed.
func (f *FakeDoorSensor) Close() error {
	f.Closed = true
	return nil
}

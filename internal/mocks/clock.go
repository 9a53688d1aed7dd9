package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockClock is a testify mock time source. Its Now method plugs into
// filesystem.FileSystem.SetTimeProvider.
type MockClock struct {
	mock.Mock
}

func (m *MockClock) Now() time.Time {
	args := m.Called()

	// Handle function return types (for clocks that advance)
	if fn, ok := args.Get(0).(func() time.Time); ok {
		return fn()
	}
	return args.Get(0).(time.Time)
}

// NewFixedClock returns a clock that always reports t
func NewFixedClock(t time.Time) *MockClock {
	m := &MockClock{}
	m.On("Now").Return(t)
	return m
}

// NewSteppingClock returns a clock that starts at start and moves forward by
// step on every call.
func NewSteppingClock(start time.Time, step time.Duration) *MockClock {
	m := &MockClock{}
	next := start
	m.On("Now").Return(func() time.Time {
		t := next
		next = next.Add(step)
		return t
	})
	return m
}

// MockContentDecoder implements requests.ContentDecoder for testing across
// packages
type MockContentDecoder struct {
	mock.Mock
}

func (m *MockContentDecoder) Decode(value string) ([]byte, error) {
	args := m.Called(value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

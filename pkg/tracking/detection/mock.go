package detection

import (
	"context"
	"sync"

	"github.com/teslashibe/go-atlas/pkg/camera"
)

// Mock is a scripted Perception for testing.
//
// Detect returns Script entries in order (nil entries mean "not found");
// once the script is exhausted it returns Default.
type Mock struct {
	DetectFunc func(ctx context.Context, frame camera.Frame) (*Detection, error)
	Script     []*Detection
	Default    *Detection

	mu      sync.Mutex
	calls   int
	targets []Target
}

// NewMock creates a mock that replays script.
func NewMock(script ...*Detection) *Mock {
	return &Mock{Script: script}
}

// SetTarget records the target.
func (m *Mock) SetTarget(t Target) {
	m.mu.Lock()
	m.targets = append(m.targets, t)
	m.mu.Unlock()
}

// Detect returns the next scripted result.
func (m *Mock) Detect(ctx context.Context, frame camera.Frame) (*Detection, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	m.mu.Unlock()

	if m.DetectFunc != nil {
		return m.DetectFunc(ctx, frame)
	}
	if i < len(m.Script) {
		return clone(m.Script[i]), nil
	}
	return clone(m.Default), nil
}

// DistanceOf returns the detection's own estimate.
func (m *Mock) DistanceOf(d Detection) (float64, bool) {
	return d.Distance, d.HasDistance
}

// Calls returns the number of Detect calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Targets returns every target set, oldest first.
func (m *Mock) Targets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Target(nil), m.targets...)
}

func clone(d *Detection) *Detection {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

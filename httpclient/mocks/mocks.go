// Package mocks provides testify mocks for the httpclient transport seams,
// in the expecter style:
//
//	cb := mocks.NewCircuitBreaker(t)
//	cb.EXPECT().Execute(mock.Anything).Return(nil, gobreaker.ErrOpenState).Once()
package mocks

import (
	"net/http"

	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// CircuitBreaker mocks httpclient.CircuitBreaker.
type CircuitBreaker struct {
	mock.Mock
}

// NewCircuitBreaker creates a CircuitBreaker whose expectations are
// asserted when the test ends.
func NewCircuitBreaker(t testingT) *CircuitBreaker {
	m := &CircuitBreaker{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Execute records the call and returns the stubbed result.
func (m *CircuitBreaker) Execute(req func() (*http.Response, error)) (*http.Response, error) {
	ret := m.Called(req)

	if run, ok := ret.Get(0).(func(func() (*http.Response, error)) (*http.Response, error)); ok {
		return run(req)
	}

	resp, _ := ret.Get(0).(*http.Response)
	return resp, ret.Error(1)
}

// CircuitBreakerExpecter sets expectations on a CircuitBreaker.
type CircuitBreakerExpecter struct {
	mock *mock.Mock
}

// EXPECT starts an expectation.
func (m *CircuitBreaker) EXPECT() *CircuitBreakerExpecter {
	return &CircuitBreakerExpecter{mock: &m.Mock}
}

// CircuitBreakerExecuteCall is an expected Execute call.
type CircuitBreakerExecuteCall struct {
	*mock.Call
}

// Execute expects a call to Execute.
func (e *CircuitBreakerExpecter) Execute(req any) *CircuitBreakerExecuteCall {
	return &CircuitBreakerExecuteCall{Call: e.mock.On("Execute", req)}
}

// Return stubs the result.
func (c *CircuitBreakerExecuteCall) Return(resp *http.Response, err error) *CircuitBreakerExecuteCall {
	c.Call.Return(resp, err)
	return c
}

// RunAndReturn computes the result from the request function.
func (c *CircuitBreakerExecuteCall) RunAndReturn(
	run func(func() (*http.Response, error)) (*http.Response, error),
) *CircuitBreakerExecuteCall {
	c.Call.Return(run)
	return c
}

// RoundTripper mocks http.RoundTripper.
type RoundTripper struct {
	mock.Mock
}

// NewRoundTripper creates a RoundTripper whose expectations are asserted
// when the test ends.
func NewRoundTripper(t testingT) *RoundTripper {
	m := &RoundTripper{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// RoundTrip records the call and returns the stubbed result.
func (m *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ret := m.Called(req)

	if run, ok := ret.Get(0).(func(*http.Request) (*http.Response, error)); ok {
		return run(req)
	}

	resp, _ := ret.Get(0).(*http.Response)
	return resp, ret.Error(1)
}

// RoundTripperExpecter sets expectations on a RoundTripper.
type RoundTripperExpecter struct {
	mock *mock.Mock
}

// EXPECT starts an expectation.
func (m *RoundTripper) EXPECT() *RoundTripperExpecter {
	return &RoundTripperExpecter{mock: &m.Mock}
}

// RoundTripperRoundTripCall is an expected RoundTrip call.
type RoundTripperRoundTripCall struct {
	*mock.Call
}

// RoundTrip expects a call to RoundTrip.
func (e *RoundTripperExpecter) RoundTrip(req any) *RoundTripperRoundTripCall {
	return &RoundTripperRoundTripCall{Call: e.mock.On("RoundTrip", req)}
}

// Return stubs the result.
func (c *RoundTripperRoundTripCall) Return(resp *http.Response, err error) *RoundTripperRoundTripCall {
	c.Call.Return(resp, err)
	return c
}

// RunAndReturn computes the result from the request.
func (c *RoundTripperRoundTripCall) RunAndReturn(
	run func(*http.Request) (*http.Response, error),
) *RoundTripperRoundTripCall {
	c.Call.Return(run)
	return c
}

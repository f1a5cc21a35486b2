package iocraft_test

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zhulik/iocraft"
	"github.com/zhulik/iocraft/pkg/headless"
)

var (
	errTest = errors.New("test error")
)

// callCounter counts constructor calls per container, so parallel tests do not interfere.
type callCounter struct {
	mu    sync.Mutex
	calls map[*iocraft.Container]int
}

func (c *callCounter) inc(container *iocraft.Container) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls == nil {
		c.calls = map[*iocraft.Container]int{}
	}
	c.calls[container]++

	return c.calls[container]
}

func (c *callCounter) get(container *iocraft.Container) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[container]
}

// logBuffer is a goroutine-safe log sink.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newContainer() (*iocraft.Container, *logBuffer) {
	logs := &logBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return iocraft.New().WithLogger(logger), logs
}

func newHeadlessContainer() (*iocraft.Container, *headless.Host, *logBuffer) {
	c, logs := newContainer()
	host := headless.New().WithLogger(c.Logger())

	return c.WithHost(host), host, logs
}

func call[V any](f *iocraft.Facade, key any, args ...any) V {
	results, err := f.Call(key, args...)
	if err != nil {
		panic(err)
	}
	return results[0].(V)
}

// mockRouter is a Router backed by testify's mock.
type mockRouter struct {
	mock.Mock
}

func (r *mockRouter) CurrentRoute() iocraft.Route {
	args := r.Called()
	return args.Get(0).(iocraft.Route)
}

func (r *mockRouter) Push(to string) error {
	args := r.Called(to)
	return args.Error(0)
}

func (r *mockRouter) Replace(to string) error {
	args := r.Called(to)
	return args.Error(0)
}

func (r *mockRouter) Go(delta int) {
	r.Called(delta)
}

func (r *mockRouter) Back() {
	r.Called()
}

func (r *mockRouter) Forward() {
	r.Called()
}

func (r *mockRouter) Resolve(to string) (iocraft.Route, error) {
	args := r.Called(to)
	return args.Get(0).(iocraft.Route), args.Error(1)
}

func (r *mockRouter) GetRoutes() []iocraft.Route {
	args := r.Called()
	return args.Get(0).([]iocraft.Route)
}

func (r *mockRouter) HasRoute(name string) bool {
	args := r.Called(name)
	return args.Bool(0)
}

func (r *mockRouter) IsReady() error {
	args := r.Called()
	return args.Error(0)
}

func (r *mockRouter) BeforeEach(guard iocraft.Guard) func() {
	args := r.Called(guard)
	return args.Get(0).(func())
}

func (r *mockRouter) AfterEach(hook func(to, from iocraft.Route)) func() {
	args := r.Called(hook)
	return args.Get(0).(func())
}

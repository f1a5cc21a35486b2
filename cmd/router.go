package main

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/zhulik/iocraft"
)

// memoryRouter is a history stack over a fixed route table.
type memoryRouter struct {
	routes  []iocraft.Route
	history []iocraft.Route
	cursor  int
}

func newMemoryRouter(routes ...iocraft.Route) *memoryRouter {
	return &memoryRouter{routes: routes, history: []iocraft.Route{routes[0]}}
}

func (r *memoryRouter) CurrentRoute() iocraft.Route {
	return r.history[r.cursor]
}

func (r *memoryRouter) Push(to string) error {
	route, err := r.Resolve(to)
	if err != nil {
		return err
	}
	r.history = append(r.history[:r.cursor+1], route)
	r.cursor++
	return nil
}

func (r *memoryRouter) Replace(to string) error {
	route, err := r.Resolve(to)
	if err != nil {
		return err
	}
	r.history[r.cursor] = route
	return nil
}

func (r *memoryRouter) Go(delta int) {
	r.cursor = max(0, min(len(r.history)-1, r.cursor+delta))
}

func (r *memoryRouter) Back()    { r.Go(-1) }
func (r *memoryRouter) Forward() { r.Go(1) }

func (r *memoryRouter) Resolve(to string) (iocraft.Route, error) {
	u, err := url.Parse(to)
	if err != nil {
		return iocraft.Route{}, err
	}

	idx := slices.IndexFunc(r.routes, func(route iocraft.Route) bool { return route.Path == u.Path })
	if idx < 0 {
		return iocraft.Route{}, fmt.Errorf("no route matches %q", to)
	}

	route := r.routes[idx]
	route.Query = u.Query()
	route.Hash = u.Fragment
	route.FullPath = to

	return route, nil
}

func (r *memoryRouter) GetRoutes() []iocraft.Route {
	return slices.Clone(r.routes)
}

func (r *memoryRouter) HasRoute(name string) bool {
	return slices.ContainsFunc(r.routes, func(route iocraft.Route) bool { return route.Name == name })
}

func (r *memoryRouter) IsReady() error {
	return nil
}

func (r *memoryRouter) BeforeEach(iocraft.Guard) func() {
	return func() {}
}

func (r *memoryRouter) AfterEach(func(to, from iocraft.Route)) func() {
	return func() {}
}

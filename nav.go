package iocraft

import (
	"errors"
	"net/url"
)

// ErrNoRouter is returned when Nav is resolved but Install was never given a Router.
var ErrNoRouter = errors.New("no router installed, pass Options.Router to Install")

// Route is a resolved location of the host router.
type Route struct {
	Path     string
	Name     string
	Params   map[string]string
	Query    url.Values
	Hash     string
	FullPath string
	Matched  []string
	Meta     map[string]any
}

// Guard runs before a navigation. Returning an error cancels it.
type Guard func(to, from Route) error

// Router is the host framework's router.
type Router interface {
	CurrentRoute() Route

	Push(to string) error
	Replace(to string) error
	Go(delta int)
	Back()
	Forward()

	Resolve(to string) (Route, error)
	GetRoutes() []Route
	HasRoute(name string) bool
	IsReady() error

	// BeforeEach and AfterEach return a function removing the registered callback.
	BeforeEach(guard Guard) func()
	AfterEach(hook func(to, from Route)) func()
}

// Nav exposes the installed Router as a service. Its facade reads the current route
// through accessors, so destructured fields follow navigation.
type Nav struct {
	router Router
}

func (n *Nav) Router() Router {
	return n.router
}

func (n *Nav) current() Route {
	return n.router.CurrentRoute()
}

// NavService is the handle of the Nav service.
var NavService *Class[Nav]

// Registered in init so that every package-level variable Register relies on is set.
func init() {
	NavService = Register(func(*Container) (*Nav, error) {
		return nil, ErrNoRouter
	}, Schema[Nav]{
		Layers: []Layer[Nav]{
			NewLayer("Nav",
				Accessor("path", func(n *Nav) string { return n.current().Path }, nil),
				Accessor("name", func(n *Nav) string { return n.current().Name }, nil),
				Accessor("params", func(n *Nav) map[string]string { return n.current().Params }, nil),
				Accessor("query", func(n *Nav) url.Values { return n.current().Query }, nil),
				Accessor("hash", func(n *Nav) string { return n.current().Hash }, nil),
				Accessor("fullPath", func(n *Nav) string { return n.current().FullPath }, nil),
				Accessor("matched", func(n *Nav) []string { return n.current().Matched }, nil),
				Accessor("meta", func(n *Nav) map[string]any { return n.current().Meta }, nil),

				Method("push", func(n *Nav) any { return n.router.Push }),
				Method("replace", func(n *Nav) any { return n.router.Replace }),
				Method("go", func(n *Nav) any { return n.router.Go }),
				Method("back", func(n *Nav) any { return n.router.Back }),
				Method("forward", func(n *Nav) any { return n.router.Forward }),
				Method("resolve", func(n *Nav) any { return n.router.Resolve }),
				Method("getRoutes", func(n *Nav) any { return n.router.GetRoutes }),
				Method("hasRoute", func(n *Nav) any { return n.router.HasRoute }),
				Method("isReady", func(n *Nav) any { return n.router.IsReady }),
				Method("beforeEach", func(n *Nav) any { return n.router.BeforeEach }),
				Method("afterEach", func(n *Nav) any { return n.router.AfterEach }),
			),
		},
	}, Named("Nav"))
}

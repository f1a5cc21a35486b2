package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/zhulik/iocraft"
)

type greeter struct {
	greeting string
}

func (g *greeter) Greet(name string) string {
	return fmt.Sprintf("%s, %s!", g.greeting, name)
}

func (g *greeter) Shutdown(_ context.Context) error {
	slog.Info("greeter shut down")
	return nil
}

var greeterService = iocraft.Register(func(*iocraft.Container) (*greeter, error) {
	return &greeter{greeting: "Hello"}, nil
}, iocraft.Schema[greeter]{
	Own: []iocraft.Member[greeter]{
		iocraft.Field("greeting", func(g *greeter) *string { return &g.greeting }),
	},
	Layers: []iocraft.Layer[greeter]{
		iocraft.NewLayer("greeter",
			iocraft.Method("greet", func(g *greeter) any { return g.Greet }),
		),
	},
})

type counterState struct {
	Count int
}

type counter struct {
	iocraft.Store[counterState]

	id       int
	greeter  *iocraft.Facade
	mounted  bool
	disposed bool
}

func (c *counter) Increment() int {
	c.SetState(func(s *counterState) { s.Count++ })
	return c.State().Count
}

func (c *counter) Describe() (string, error) {
	results, err := c.greeter.Call("greet", fmt.Sprintf("counter #%d", c.id))
	if err != nil {
		return "", err
	}
	return results[0].(string), nil
}

func (c *counter) OnMounted() {
	c.mounted = true
}

func (c *counter) OnScopeDispose() {
	c.disposed = true
	slog.Info("counter disposed", "id", c.id)
}

var counterService = iocraft.Register(func(c *iocraft.Container) (*counter, error) {
	g, err := iocraft.Obtain[greeter](c)
	if err != nil {
		return nil, err
	}

	return &counter{
		Store:   iocraft.NewStore(counterState{}),
		id:      rand.IntN(1_000_000),
		greeter: g,
	}, nil
}, iocraft.Schema[counter]{
	Own: []iocraft.Member[counter]{
		iocraft.Field("id", func(c *counter) *int { return &c.id }),
		iocraft.Field("mounted", func(c *counter) *bool { return &c.mounted }),
	},
	Layers: append([]iocraft.Layer[counter]{
		iocraft.NewLayer("counter",
			iocraft.Method("increment", func(c *counter) any { return c.Increment }),
			iocraft.Method("describe", func(c *counter) any { return c.Describe }),
		),
	}, iocraft.StoreLayers(func(c *counter) *iocraft.Store[counterState] { return &c.Store })...),
})

// ping and pong depend on each other; each only touches the other lazily.
type ping struct {
	pong *iocraft.Facade
}

type pong struct {
	ping *iocraft.Facade
}

var pingService = iocraft.Register(func(c *iocraft.Container) (*ping, error) {
	p, err := iocraft.Obtain[pong](c)
	if err != nil {
		return nil, err
	}
	return &ping{pong: p}, nil
}, iocraft.Schema[ping]{
	Layers: []iocraft.Layer[ping]{
		iocraft.NewLayer("ping",
			iocraft.Method("name", func(*ping) any { return func() string { return "ping" } }),
			iocraft.Method("peer", func(p *ping) any {
				return func() (string, error) {
					results, err := p.pong.Call("name")
					if err != nil {
						return "", err
					}
					return results[0].(string), nil
				}
			}),
		),
	},
})

var pongService = iocraft.Register(func(c *iocraft.Container) (*pong, error) {
	p, err := iocraft.Obtain[ping](c)
	if err != nil {
		return nil, err
	}
	return &pong{ping: p}, nil
}, iocraft.Schema[pong]{
	Layers: []iocraft.Layer[pong]{
		iocraft.NewLayer("pong",
			iocraft.Method("name", func(*pong) any { return func() string { return "pong" } }),
		),
	},
})

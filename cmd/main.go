package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zhulik/iocraft"
	"github.com/zhulik/iocraft/pkg/draw"
	"github.com/zhulik/iocraft/pkg/headless"
)

func main() {
	if err := run(); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	host := headless.New()
	c := iocraft.New().WithHost(host)

	err := iocraft.Install(c, iocraft.Options{
		EagerLoad: []iocraft.Service{greeterService, pingService},
		Router: newMemoryRouter(
			iocraft.Route{Path: "/", Name: "home"},
			iocraft.Route{Path: "/counter", Name: "counter"},
		),
		ShutdownTimeout: 3 * time.Second,
	})
	if err != nil {
		return err
	}

	nav, err := iocraft.Obtain[iocraft.Nav](c)
	if err != nil {
		return err
	}
	if _, err := nav.Call("push", "/counter?step=1"); err != nil {
		return err
	}
	path, _ := nav.Get("path")
	slog.Info("navigated", "path", path)

	pingFacade, err := iocraft.Obtain[ping](c)
	if err != nil {
		return err
	}
	peer, err := pingFacade.Call("peer")
	if err != nil {
		return err
	}
	slog.Info("cycle resolved", "peer", peer[0])

	if _, err := iocraft.Obtain[counterState](c); err != nil {
		slog.Info("unregistered type rejected", "error", err)
	}

	var counterFacade *iocraft.Facade
	app := host.Setup("App", nil, nil)
	view := host.Setup("Counter", app, func() {
		counterFacade, err = iocraft.ObtainInstance[counter](c)
	})
	if err != nil {
		return err
	}
	app.Mount()

	for range 3 {
		if _, err := counterFacade.Call("increment"); err != nil {
			return err
		}
	}

	state, err := iocraft.ValueOf[counterState](counterFacade, "state")
	if err != nil {
		return err
	}
	description, err := counterFacade.Call("describe")
	if err != nil {
		return err
	}
	slog.Info("counter", "count", state.Count, "description", description[0], "mounted", view.Mounted())

	app.Unmount()

	fmt.Print(string(draw.RenderContainer(c)))

	return c.Shutdown(context.Background())
}

/*
This is an example of application that will use the
engine package to draw a textured quad
*/
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kaelos/prism/engine"
	"github.com/kaelos/prism/engine/core"
	"github.com/kaelos/prism/engine/scene"
)

func demoScene() *scene.Scene {
	s := scene.New("demo")

	quad := scene.NewEntity("quad")
	quad.RenderData = &scene.RenderData{
		Vertices: []scene.Vertex{
			{Position: [3]float32{-0.5, -0.5, 0}, Color: [3]float32{1, 0, 0}, TexCoord: [2]float32{0, 0}},
			{Position: [3]float32{0.5, -0.5, 0}, Color: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{0.5, 0.5, 0}, Color: [3]float32{0, 0, 1}, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{-0.5, 0.5, 0}, Color: [3]float32{1, 1, 1}, TexCoord: [2]float32{0, 1}},
		},
		Indices: []uint32{0, 1, 2, 2, 3, 0},
	}
	s.AddEntity(quad)
	return s
}

func main() {
	cfg, err := engine.LoadApplicationConfig("prism.toml")
	if err != nil {
		core.ShowErrorDialog("Configuration error", err.Error())
		os.Exit(1)
	}
	core.SetLogLevel(cfg.LogLevel)

	app := engine.New(cfg)
	if err := app.Initialize(); err != nil {
		core.ShowErrorDialog("Startup failed", err.Error())
		os.Exit(1)
	}

	if err := app.SetScene(demoScene()); err != nil {
		core.ShowErrorDialog("Scene upload failed", err.Error())
		_ = app.Shutdown()
		os.Exit(1)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// start shutdown goroutine
	go func() {
		// capture sigterm and other system call here
		<-sigCh
		_ = app.Shutdown()
	}()

	if err := app.Run(); err != nil {
		panic(err)
	}
}

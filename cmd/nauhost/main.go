// Command nauhost is an example host process: it wires a ServiceProvider,
// a sequential game system, the main-loop orchestrator, an input dispatcher,
// structured logging, and engine/modules configuration together, then runs
// a handful of fixed-step frames before shutting everything down in order.
//
// It is a supplemented feature (SPEC_FULL.md §2): the distilled spec
// describes the core library only, not a runnable process, but every real
// consumer of these packages needs to see them composed once.
package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/nau-engine/runtime/appconfig"
	"github.com/nau-engine/runtime/applog"
	"github.com/nau-engine/runtime/async"
	"github.com/nau-engine/runtime/input"
	"github.com/nau-engine/runtime/mainloop"
	"github.com/nau-engine/runtime/service"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
)

// envSource adapts environment variables to appconfig.Source, treating a
// comma-separated value as a string slice.
type envSource struct{}

func (envSource) StringSlice(key string) ([]string, bool) {
	v, ok := os.LookupEnv(envKey(key))
	if !ok || v == "" {
		return nil, false
	}
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			out = append(out, v[start:i])
			start = i + 1
		}
	}
	return out, true
}

func (envSource) Bool(key string) (bool, bool) {
	v, ok := os.LookupEnv(envKey(key))
	if !ok {
		return false, false
	}
	return v == "1" || v == "true", true
}

func envKey(configKey string) string {
	out := make([]byte, 0, len(configKey)+4)
	out = append(out, "NAU_"...)
	for _, r := range configKey {
		switch {
		case r == '/':
			out = append(out, '_')
		case r >= 'a' && r <= 'z':
			out = append(out, byte(r-'a'+'A'))
		default:
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// demoSystem is a sequential game system: it counts frames and logs one
// line per step, standing in for whatever gameplay code a real host
// registers via service.ClassDescriptor.
type demoSystem struct {
	log    *logiface.Logger[*izerolog.Event]
	frames int
}

func (d *demoSystem) GamePreUpdate(dt time.Duration) {
	d.frames++
	d.log.Info().Int("frame", d.frames).Dur("dt", dt).Log("frame start")
}

func (d *demoSystem) GamePostUpdate(dt time.Duration) {
	d.log.Debug().Int("frame", d.frames).Log("frame end")
}

func main() {
	logger := applog.NewZerolog(os.Stderr, logiface.LevelInformational)
	mainLog := logger.For(applog.CategoryMainLoop)

	cfg := appconfig.Load(envSource{},
		appconfig.WithOptionalModule("scripting-bridge"),
	)
	mainLog.Info().
		Int("searchPaths", len(cfg.SearchPaths)).
		Bool("searchEnvPath", cfg.SearchEnvPath).
		Log("loaded engine/modules configuration")

	provider := service.New()
	service.SetGlobal(provider)

	provider.AddClass(&service.ClassDescriptor{
		Name:       "demoSystem",
		Interfaces: []reflect.Type{service.InterfaceID[mainloop.GamePreUpdate](), service.InterfaceID[mainloop.GamePostUpdate]()},
		New: func() (any, error) {
			return &demoSystem{log: logger.For(applog.CategoryECS)}, nil
		},
	})

	loop := mainloop.NewMainLoopService(provider)
	provider.AddInstance(loop,
		service.InterfaceID[service.IServiceInitialization](),
		service.InterfaceID[service.IServiceShutdown](),
	)

	exp := async.NewTimedExpiration(10 * time.Second)

	if _, err := async.WaitResult(provider.PreInitServices(), exp); err != nil {
		fmt.Fprintln(os.Stderr, "preinit failed:", err)
		os.Exit(1)
	}
	for _, c := range loop.Containers() {
		if _, err := async.WaitResult(c.InitService(), exp); err != nil {
			fmt.Fprintln(os.Stderr, "container init failed:", err)
			os.Exit(1)
		}
	}
	if _, err := async.WaitResult(provider.InitServices(), exp); err != nil {
		fmt.Fprintln(os.Stderr, "init failed:", err)
		os.Exit(1)
	}

	dispatcher := input.NewDispatcher(input.NewFactory())
	dispatcher.SetContext("gameplay")
	inputLog := logger.For(applog.CategoryInput)

	const stepCount = 5
	const stepDt = 16 * time.Millisecond
	for i := 0; i < stepCount; i++ {
		loop.DoGameStep(stepDt)
		dispatcher.Update(stepDt)
		inputLog.Trace().Int("step", i).Log("input evaluated")
		time.Sleep(stepDt)
	}

	if _, err := async.WaitResult(loop.ShutdownMainLoop(), exp); err != nil {
		fmt.Fprintln(os.Stderr, "scene shutdown failed:", err)
	}
	for _, c := range loop.Containers() {
		if _, err := async.WaitResult(c.ShutdownService(), exp); err != nil {
			fmt.Fprintln(os.Stderr, "container shutdown failed:", err)
		}
	}
	if _, err := async.WaitResult(provider.ShutdownServices(), exp); err != nil {
		fmt.Fprintln(os.Stderr, "shutdown failed:", err)
		os.Exit(1)
	}

	mainLog.Info().Log("host exited cleanly")
}

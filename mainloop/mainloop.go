// Package mainloop implements the main-loop orchestrator: discovery and
// ordered preInit/init of game-system classes, sequential-vs-concurrent
// classification, and the per-frame DoGameStep driver.
//
// Grounded on _examples/original_source/engine/core/app_framework/src/
// main_loop/main_loop_service.{h,cpp}.
package mainloop

import (
	"reflect"
	"time"

	"github.com/nau-engine/runtime/async"
	"github.com/nau-engine/runtime/concurrency"
	"github.com/nau-engine/runtime/service"
)

// GamePreUpdate is run once per frame, before scene update.
type GamePreUpdate interface {
	GamePreUpdate(dt time.Duration)
}

// GamePostUpdate is run once per frame, after scene update.
type GamePostUpdate interface {
	GamePostUpdate(dt time.Duration)
}

// SceneManager is the pluggable scene-graph coordinator DoGameStep drives,
// if one is registered with the provider. This module carries only the
// hook, not a scene-graph implementation (out of scope — see SPEC_FULL.md's
// Non-goals).
type SceneManager interface {
	Update(dt time.Duration)
	Shutdown() async.Task[service.Unit]
}

// PlatformWindowService is a marker type for MainLoopService's declared
// dependency on a platform window host — carried for dependency-ordering
// parity with the source (MainLoopService waits for window-service
// init before its own), without this module providing a concrete windowing
// backend (out of scope — see SPEC_FULL.md's Non-goals).
type PlatformWindowService interface {
	service.IServiceInitialization
}

// DebugOverlay is the optional ImGui-style debug-draw hook; if a service
// implementing it is registered, DoGameStep drives it once per frame after
// the regular update phases. Supplements a feature the distilled spec
// dropped (the source's dag_imgui integration) in source-agnostic form.
type DebugOverlay interface {
	CacheRenderData()
	Update()
}

// ExecutionMode classifies how a discovered game-system class should run.
type ExecutionMode int

const (
	// Sequential runs the system inline, on the same goroutine driving
	// DoGameStep — the default when a class declares no preference.
	Sequential ExecutionMode = iota
	// Concurrent runs the system on its own dedicated goroutine, via a
	// concurrency.Container.
	Concurrent
)

// ExecutionModeAttribute is the ClassDescriptor.Attributes key consulted to
// classify a discovered class, standing in for the source's
// PreferredExecutionMode runtime attribute.
const ExecutionModeAttribute = "executionMode"

func executionModeOf(cd *service.ClassDescriptor) ExecutionMode {
	if cd.Attributes == nil {
		return Sequential
	}
	if v, ok := cd.Attributes[ExecutionModeAttribute].(ExecutionMode); ok {
		return v
	}
	return Sequential
}

// MainLoopService discovers game-system classes from the provider,
// classifies and preInits them, and drives their per-frame update via
// DoGameStep. It implements service.IServiceInitialization and
// service.IServiceShutdown so it participates in the provider's ordinary
// lifecycle like any other service.
type MainLoopService struct {
	provider *service.Provider

	preUpdate   []GamePreUpdate
	postUpdate  []GamePostUpdate
	sceneUpdate []concurrency.GameSceneUpdate

	containers []*concurrency.Container

	sceneManager SceneManager

	// RateDiagnostic, if set, is consulted once per DoGameStep call —
	// wiring a catrate.Limiter-backed diagnostic for free-running systems
	// that might otherwise spin the CPU unbounded (see ratediagnostic.go).
	RateDiagnostic *RateDiagnostic
}

// NewMainLoopService creates an orchestrator bound to provider. The caller
// is responsible for registering it with the provider
// (provider.AddInstance(m, service.InterfaceID[service.IServiceInitialization](), ...)).
func NewMainLoopService(provider *service.Provider) *MainLoopService {
	return &MainLoopService{provider: provider}
}

// GetServiceDependencies reports MainLoopService's own dependency on a
// platform window host, matching the source's getServiceDependencies.
func (m *MainLoopService) GetServiceDependencies() []reflect.Type {
	return []reflect.Type{service.InterfaceID[PlatformWindowService]()}
}

func gameSystemInterfaceTypes() []reflect.Type {
	return []reflect.Type{
		service.InterfaceID[GamePreUpdate](),
		service.InterfaceID[GamePostUpdate](),
		service.InterfaceID[concurrency.GameSceneUpdate](),
	}
}

// PreInitService discovers every registered class implementing
// GamePreUpdate, GamePostUpdate, or concurrency.GameSceneUpdate, then
// constructs and preInits each in discovery order — concurrent systems get
// a dedicated concurrency.Container instead of being constructed inline.
func (m *MainLoopService) PreInitService() async.Task[service.Unit] {
	m.preUpdate = append(m.preUpdate, service.GetAll[GamePreUpdate](m.provider, service.Create)...)
	m.postUpdate = append(m.postUpdate, service.GetAll[GamePostUpdate](m.provider, service.Create)...)

	classes := m.provider.FindClasses(gameSystemInterfaceTypes(), service.MatchAny)

	out := async.NewTaskSource[service.Unit]()
	go func() {
		exp := async.NewEternalExpiration()
		for _, cd := range classes {
			if _, err := async.WaitResult(m.preInitGameSystem(cd), exp); err != nil {
				out.RejectWithError(err)
				return
			}
		}
		out.Resolve(service.Unit{})
	}()
	return out.GetTask()
}

func (m *MainLoopService) preInitGameSystem(cd *service.ClassDescriptor) async.Task[service.Unit] {
	if cd.HasInterface(service.InterfaceID[concurrency.GameSceneUpdate]()) &&
		executionModeOf(cd) == Concurrent {
		container := concurrency.NewContainer(cd)
		m.containers = append(m.containers, container)
		return container.PreInitService()
	}

	instance, err := cd.New()
	if err != nil {
		return async.MakeRejected[service.Unit](err)
	}
	m.provider.AddInstance(instance, cd.Interfaces...)

	if su, ok := instance.(concurrency.GameSceneUpdate); ok {
		m.sceneUpdate = append(m.sceneUpdate, su)
	}
	if pu, ok := instance.(GamePreUpdate); ok {
		m.preUpdate = append(m.preUpdate, pu)
	}
	if po, ok := instance.(GamePostUpdate); ok {
		m.postUpdate = append(m.postUpdate, po)
	}

	if init, ok := instance.(service.IServiceInitialization); ok {
		return init.PreInitService()
	}
	return async.MakeResolved(service.Unit{})
}

// InitService resolves the optional SceneManager dependency. Game systems
// discovered as classes are registered as regular accessors in
// preInitGameSystem, so the provider's ordinary InitServices pass reaches
// those whose class descriptor lists IServiceInitialization among its
// Interfaces; concurrent containers receive InitService calls directly from
// whoever holds them — see cmd/nauhost for the wiring that calls InitService
// on every container before ServiceProvider.InitServices.
func (m *MainLoopService) InitService() async.Task[service.Unit] {
	if sm, ok := service.Find[SceneManager](m.provider, service.DoNotCreate); ok {
		m.sceneManager = sm
	}
	return async.MakeResolved(service.Unit{})
}

// ShutdownService is a no-op at the provider-lifecycle level — the actual
// shutdown sequencing for scene state lives in ShutdownMainLoop, and
// per-container shutdown is driven by whoever owns the containers (see
// cmd/nauhost), mirroring the source's empty shutdownService plus its
// separate shutdownMainLoop entry point.
func (m *MainLoopService) ShutdownService() async.Task[service.Unit] {
	return async.MakeResolved(service.Unit{})
}

// ShutdownMainLoop shuts down the scene manager, if one was resolved.
func (m *MainLoopService) ShutdownMainLoop() async.Task[service.Unit] {
	if m.sceneManager == nil {
		return async.MakeResolved(service.Unit{})
	}
	return m.sceneManager.Shutdown()
}

// Containers returns the concurrency.Container instances created for
// classes classified Concurrent, in discovery order — used by the host to
// drive InitService/ShutdownService on them.
func (m *MainLoopService) Containers() []*concurrency.Container {
	return append([]*concurrency.Container(nil), m.containers...)
}

// SceneUpdateSystems returns every sequentially-constructed game system
// implementing concurrency.GameSceneUpdate, in discovery order. DoGameStep
// itself never calls these directly (matching the source, where
// m_sceneUpdate is collected for the scene graph to pull from, not driven
// by doGameStep) — a SceneManager implementation can use this list to
// drive per-system scene updates itself.
func (m *MainLoopService) SceneUpdateSystems() []concurrency.GameSceneUpdate {
	return append([]concurrency.GameSceneUpdate(nil), m.sceneUpdate...)
}

// DoGameStep runs one frame: preUpdate, scene update, postUpdate, then the
// optional debug overlay. dt is truncated to milliseconds, matching the
// source's float-seconds-to-duration conversion.
func (m *MainLoopService) DoGameStep(dt time.Duration) {
	if m.RateDiagnostic != nil {
		m.RateDiagnostic.Tick()
	}

	msDt := dt.Truncate(time.Millisecond)

	for _, pu := range m.preUpdate {
		pu.GamePreUpdate(msDt)
	}

	if m.sceneManager != nil {
		m.sceneManager.Update(msDt)
	}

	for _, po := range m.postUpdate {
		po.GamePostUpdate(msDt)
	}

	if overlay, ok := service.Find[DebugOverlay](m.provider, service.DoNotCreate); ok {
		overlay.CacheRenderData()
		overlay.Update()
	}
}

package mainloop

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nau-engine/runtime/async"
	"github.com/nau-engine/runtime/concurrency"
	"github.com/nau-engine/runtime/service"
)

type fakePrePost struct {
	pre, post []time.Duration
}

func (f *fakePrePost) GamePreUpdate(dt time.Duration)  { f.pre = append(f.pre, dt) }
func (f *fakePrePost) GamePostUpdate(dt time.Duration) { f.post = append(f.post, dt) }

type fakeSceneManager struct {
	updates []time.Duration
	shut    bool
}

func (m *fakeSceneManager) Update(dt time.Duration) { m.updates = append(m.updates, dt) }
func (m *fakeSceneManager) Shutdown() async.Task[service.Unit] {
	m.shut = true
	return async.MakeResolved(service.Unit{})
}

func TestMainLoopService_SequentialDiscoveryAndStep(t *testing.T) {
	p := service.New()
	pp := &fakePrePost{}
	p.AddInstance(pp, service.InterfaceID[GamePreUpdate](), service.InterfaceID[GamePostUpdate]())

	m := NewMainLoopService(p)
	_, err := async.WaitResult(m.PreInitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	m.DoGameStep(1500 * time.Microsecond)
	assert.Len(t, pp.pre, 1)
	assert.Len(t, pp.post, 1)
	assert.Equal(t, time.Millisecond, pp.pre[0]) // 1.5ms truncated to whole milliseconds
}

func TestMainLoopService_SceneManagerHook(t *testing.T) {
	p := service.New()
	sm := &fakeSceneManager{}
	p.AddInstance(sm, service.InterfaceID[SceneManager]())

	m := NewMainLoopService(p)
	_, err := async.WaitResult(m.InitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	m.DoGameStep(16 * time.Millisecond)
	require.Len(t, sm.updates, 1)
	assert.Equal(t, 16*time.Millisecond, sm.updates[0])

	_, err = async.WaitResult(m.ShutdownMainLoop(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
	assert.True(t, sm.shut)
}

type concurrentFakeScene struct{}

func (s *concurrentFakeScene) Update(dt time.Duration) (bool, error) { return false, nil }
func (s *concurrentFakeScene) SyncSceneState()                       {}
func (s *concurrentFakeScene) FixedUpdateTimeStep() (time.Duration, bool) {
	return 0, false
}

func TestMainLoopService_ConcurrentClassGetsContainer(t *testing.T) {
	p := service.New()
	p.AddClass(&service.ClassDescriptor{
		Name:       "concurrentScene",
		Interfaces: []reflect.Type{service.InterfaceID[concurrency.GameSceneUpdate]()},
		New: func() (any, error) {
			return &concurrentFakeScene{}, nil
		},
		Attributes: map[string]any{ExecutionModeAttribute: Concurrent},
	})

	m := NewMainLoopService(p)
	_, err := async.WaitResult(m.PreInitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	containers := m.Containers()
	require.Len(t, containers, 1)

	_, err = async.WaitResult(containers[0].InitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	_, err = async.WaitResult(containers[0].ShutdownService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)
}

type sequentialFakeScene struct {
	updates int
}

func (s *sequentialFakeScene) Update(dt time.Duration) (bool, error) { s.updates++; return true, nil }
func (s *sequentialFakeScene) SyncSceneState()                       {}
func (s *sequentialFakeScene) FixedUpdateTimeStep() (time.Duration, bool) {
	return 0, false
}

func TestMainLoopService_SequentialClassConstructedInline(t *testing.T) {
	p := service.New()
	scene := &sequentialFakeScene{}
	p.AddClass(&service.ClassDescriptor{
		Name:       "sequentialScene",
		Interfaces: []reflect.Type{service.InterfaceID[concurrency.GameSceneUpdate]()},
		New:        func() (any, error) { return scene, nil },
	})

	m := NewMainLoopService(p)
	_, err := async.WaitResult(m.PreInitService(), async.NewTimedExpiration(time.Second))
	require.NoError(t, err)

	assert.Empty(t, m.Containers())
	assert.Len(t, m.SceneUpdateSystems(), 1)
	assert.True(t, service.Has[concurrency.GameSceneUpdate](p))
}

func TestRateDiagnostic_FlagsOverRate(t *testing.T) {
	d := NewRateDiagnostic(time.Minute, 2)
	var flagged int
	d.OnOverRate = func(next time.Time) { flagged++ }

	d.Tick()
	d.Tick()
	d.Tick()

	assert.Equal(t, 1, flagged)
}

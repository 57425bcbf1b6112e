package systems

import (
	"github.com/spaghettifunk/fusen/engine/core"
	"github.com/spaghettifunk/fusen/engine/scene"
	"github.com/spaghettifunk/fusen/engine/sensing"
)

type SystemManagerConfig struct {
	BuildWorkers   int
	BuildQueueSize int
	Placement      PlacementSystemConfig
}

// SystemManager owns the systems of one engine and shuts them down in
// reverse dependency order.
type SystemManager struct {
	jobSystem       *JobSystem
	meshSystem      *MeshSystem
	placementSystem *PlacementSystem
}

func NewSystemManager(config SystemManagerConfig, sc *scene.Scene, provider sensing.GeometryProvider, metrics *core.SessionMetrics) (*SystemManager, error) {
	js, err := NewJobSystem(config.BuildWorkers, config.BuildQueueSize)
	if err != nil {
		return nil, err
	}
	ms, err := NewMeshSystem(MeshSystemConfig{
		ResultQueueSize: config.BuildQueueSize,
	}, sc, provider, js, metrics)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	ps, err := NewPlacementSystem(config.Placement, sc, ms, metrics)
	if err != nil {
		js.Shutdown()
		return nil, err
	}
	return &SystemManager{
		jobSystem:       js,
		meshSystem:      ms,
		placementSystem: ps,
	}, nil
}

func (sm *SystemManager) Jobs() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) Meshes() *MeshSystem {
	return sm.meshSystem
}

func (sm *SystemManager) Placement() *PlacementSystem {
	return sm.placementSystem
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.placementSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.meshSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}

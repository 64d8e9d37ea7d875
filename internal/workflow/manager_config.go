package workflow

import (
	"mcexport/internal/queue"
	"mcexport/internal/stage"
)

// ConfigureStages registers the concrete stage handlers the workflow will run.
// A nil handler leaves its stage unclaimed, so items wait at its start status.
func (m *Manager) ConfigureStages(set StageSet) {
	handlers := map[queue.Status]struct {
		name    string
		handler stage.Handler
	}{
		queue.StatusPending:  {"preparation", set.Preparer},
		queue.StatusPrepared: {"rendering", set.Renderer},
		queue.StatusRendered: {"collection", set.Collector},
	}

	stages := make([]pipelineStage, 0, len(handlers))
	for _, t := range queue.Transitions() {
		entry, ok := handlers[t.Start]
		if !ok || entry.handler == nil {
			continue
		}
		if aware, ok := entry.handler.(stage.LoggerAware); ok {
			aware.SetLogger(m.baseLogger())
		}
		stages = append(stages, newPipelineStage(entry.name, entry.handler, t))
	}

	m.mu.Lock()
	m.stages = stages
	m.mu.Unlock()
}

func (m *Manager) startStatuses() []queue.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]queue.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		out = append(out, stg.startStatus)
	}
	return out
}

func (m *Manager) processingStatuses() []queue.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]queue.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		out = append(out, stg.processingStatus)
	}
	return out
}

func (m *Manager) stageForProcessing(status queue.Status) (pipelineStage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, stg := range m.stages {
		if stg.processingStatus == status {
			return stg, true
		}
	}
	return pipelineStage{}, false
}

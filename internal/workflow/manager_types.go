package workflow

import (
	"mcexport/internal/queue"
	"mcexport/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Preparer  stage.Handler
	Renderer  stage.Handler
	Collector stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

func newPipelineStage(name string, handler stage.Handler, t queue.Transition) pipelineStage {
	return pipelineStage{
		name:             name,
		handler:          handler,
		startStatus:      t.Start,
		processingStatus: t.Processing,
		doneStatus:       t.Done,
	}
}

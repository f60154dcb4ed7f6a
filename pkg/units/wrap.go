package units

import (
	"github.com/thoth-station/adviser/pkg/pipeline"
	"github.com/thoth-station/adviser/pkg/stack"
)

const partialEnvironmentMessage = "The runtime environment is not fully specified, " +
	"the resolved stack may not match the deployment"

// StackInfoWrap notes on every accepted state that the runtime environment
// is only partially specified.
type StackInfoWrap struct {
	pipeline.Base
}

func stackInfoWrapDefinition() pipeline.Definition {
	return pipeline.Definition{
		Kind:        pipeline.KindWrap,
		Description: "Flags states resolved for a partially specified runtime environment",
		Defaults:    pipeline.Configuration{"link": ""},
		Schema:      `link: string`,
		ShouldInclude: func(bc *pipeline.BuilderContext) []pipeline.Configuration {
			p := bc.Project()
			if p == nil || p.RuntimeEnvironment.IsFullySpecified() {
				return nil
			}
			return once()
		},
		New: func() pipeline.Unit { return &StackInfoWrap{} },
	}
}

// Run implements pipeline.Wrap.
func (w *StackInfoWrap) Run(rc *pipeline.RunContext, state *stack.State) {
	if p := rc.Project(); p != nil && p.RuntimeEnvironment.IsFullySpecified() {
		return
	}
	state.AddJustification(stack.Justification{
		Type:    stack.JustificationWarning,
		Message: partialEnvironmentMessage,
		Link:    stringValue(w.Configuration(), "link"),
	})
}

// Package repair provides the infrastructure repair tools bound to a world.
package repair

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/pack"
	"github.com/gkosnia163/ollama-agent/domain/tool"
	"github.com/gkosnia163/ollama-agent/domain/world"
)

// Name is the pack name.
const Name = "repair"

// New creates the repair pack over w. Tools read and mutate w directly, so
// one pack serves exactly one run.
func New(w *world.World, m world.Matcher) *pack.Pack {
	return pack.NewBuilder(Name).
		WithDescription("Failure detection, impact analysis and crew dispatch").
		WithVersion("1.0.0").
		AddTools(
			detectFailuresTool(w),
			estimateImpactTool(w),
			checkCrewAvailabilityTool(w),
			planRepairsTool(w, m),
			assignRepairCrewTool(w),
		).
		AllowInPhase(agent.PhaseDetect, agent.ActionDetectFailures.String()).
		AllowInPhase(agent.PhaseAnalyze, agent.ActionEstimateImpact.String()).
		AllowInPhase(agent.PhasePlan, agent.ActionPlanRepairs.String(), agent.ActionCheckCrews.String()).
		AllowInPhase(agent.PhaseAct, agent.ActionAssignRepairCrew.String()).
		AllowInPhase(agent.PhaseWait, agent.ActionCheckCrews.String()).
		Build()
}

func detectFailuresTool(w *world.World) tool.Tool {
	return tool.NewBuilder(agent.ActionDetectFailures.String()).
		WithDescription("Scan the network and return the ids of nodes whose status is Broken").
		ReadOnly().
		Idempotent().
		WithTags("detect").
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			return tool.JSONResult(w.DetectFailures())
		}).
		MustBuild()
}

type estimateImpactInput struct {
	NodeID string `json:"node_id"`
}

var estimateImpactSchema = tool.ObjectSchema(map[string]json.RawMessage{
	"node_id": json.RawMessage(`{"type": "string", "minLength": 1}`),
}, []string{"node_id"})

func estimateImpactTool(w *world.World) tool.Tool {
	return tool.NewBuilder(agent.ActionEstimateImpact.String()).
		WithDescription("Return type, population affected and criticality of a node").
		WithInputSchema(estimateImpactSchema).
		ReadOnly().
		Idempotent().
		WithTags("analyze").
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in estimateImpactInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			report, err := w.EstimateImpact(in.NodeID)
			if err != nil {
				return domainError(err)
			}
			return tool.JSONResult(report)
		}).
		MustBuild()
}

func checkCrewAvailabilityTool(w *world.World) tool.Tool {
	return tool.NewBuilder(agent.ActionCheckCrews.String()).
		WithDescription("Return every crew mapped to its status (Available or Busy)").
		ReadOnly().
		Idempotent().
		WithTags("wait").
		WithHandler(func(_ context.Context, _ json.RawMessage) (tool.Result, error) {
			data, err := world.AvailabilityJSON(w.CrewAvailability())
			if err != nil {
				return tool.Result{}, err
			}
			return tool.NewResult(data), nil
		}).
		MustBuild()
}

type planRepairsInput struct {
	Reports []world.ImpactReport `json:"reports"`
}

var planRepairsSchema = tool.ObjectSchema(map[string]json.RawMessage{
	"reports": json.RawMessage(`{
		"type": ["array", "null"],
		"items": {
			"type": "object",
			"required": ["node_id"],
			"properties": {
				"node_id": {"type": "string"},
				"type": {"type": "string"},
				"population_affected": {"type": "integer", "minimum": 0},
				"criticality": {"type": "string"}
			}
		}
	}`),
}, nil)

func planRepairsTool(w *world.World, m world.Matcher) tool.Tool {
	return tool.NewBuilder(agent.ActionPlanRepairs.String()).
		WithDescription("Match available crews to failed nodes by priority and specialty").
		WithInputSchema(planRepairsSchema).
		ReadOnly().
		Idempotent().
		WithTags("plan").
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in planRepairsInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			reports := in.Reports
			if len(reports) == 0 {
				// Without reports, plan over every current failure.
				for _, id := range w.DetectFailures() {
					r, err := w.EstimateImpact(id)
					if err != nil {
						return domainError(err)
					}
					reports = append(reports, r)
				}
			}

			return tool.JSONResult(w.PlanRepairs(reports, m))
		}).
		MustBuild()
}

type assignInput struct {
	NodeIDs []string `json:"node_ids"`
	CrewIDs []string `json:"crew_ids"`
}

var assignSchema = tool.ObjectSchema(map[string]json.RawMessage{
	"node_ids": json.RawMessage(`{"type": "array", "items": {"type": "string"}}`),
	"crew_ids": json.RawMessage(`{"type": "array", "items": {"type": "string"}}`),
}, []string{"node_ids", "crew_ids"})

func assignRepairCrewTool(w *world.World) tool.Tool {
	return tool.NewBuilder(agent.ActionAssignRepairCrew.String()).
		WithDescription("Dispatch crew_ids[i] to node_ids[i]; reports an outcome per pair").
		WithInputSchema(assignSchema).
		Mutating().
		WithTags("act").
		WithHandler(func(_ context.Context, input json.RawMessage) (tool.Result, error) {
			var in assignInput
			if err := json.Unmarshal(input, &in); err != nil {
				return tool.Result{}, err
			}

			report, err := w.AssignRepairCrews(in.NodeIDs, in.CrewIDs)
			if err != nil {
				return domainError(err)
			}

			data, err := json.Marshal(report)
			if err != nil {
				return tool.Result{}, err
			}
			return tool.NewResult(data), nil
		}).
		MustBuild()
}

// domainError turns a world error into an {"error": ...} observation.
// Anything else is returned as a Go error.
func domainError(err error) (tool.Result, error) {
	var unknown *world.UnknownEntityError
	switch {
	case errors.As(err, &unknown):
		return tool.ErrorResult(unknown.Error()), nil
	case errors.Is(err, world.ErrLengthMismatch):
		return tool.ErrorResult(err.Error()), nil
	default:
		return tool.Result{}, err
	}
}

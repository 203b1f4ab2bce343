// Package application provides the application layer for the repair agent.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gkosnia163/ollama-agent/domain/agent"
	"github.com/gkosnia163/ollama-agent/domain/artifact"
	"github.com/gkosnia163/ollama-agent/domain/ledger"
	"github.com/gkosnia163/ollama-agent/domain/middleware"
	"github.com/gkosnia163/ollama-agent/domain/pack"
	"github.com/gkosnia163/ollama-agent/domain/scenario"
	"github.com/gkosnia163/ollama-agent/domain/tool"
	"github.com/gkosnia163/ollama-agent/domain/world"
	"github.com/gkosnia163/ollama-agent/infrastructure/logging"
	inframw "github.com/gkosnia163/ollama-agent/infrastructure/middleware"
	"github.com/gkosnia163/ollama-agent/infrastructure/planner"
	"github.com/gkosnia163/ollama-agent/infrastructure/resilience"
	"github.com/gkosnia163/ollama-agent/infrastructure/statemachine"
	"github.com/gkosnia163/ollama-agent/infrastructure/storage/memory"
	"github.com/gkosnia163/ollama-agent/infrastructure/telemetry"
	"github.com/gkosnia163/ollama-agent/pack/repair"
)

// DefaultMaxSteps is the step ceiling used when none is configured.
const DefaultMaxSteps = 10

var finalizedObservation = json.RawMessage(`{"status":"finalized"}`)

// Engine drives runs: one decision, one action and one transition per step.
type Engine struct {
	planner           planner.Planner
	providerName      string
	executor          *resilience.Executor
	loader            scenario.Loader
	matcher           world.Matcher
	strategy          agent.Strategy
	maxSteps          int
	metrics           telemetry.Metrics
	artifacts         artifact.Store
	middleware        []middleware.Middleware
	strictEligibility bool
	newID             func() string
}

// EngineConfig contains configuration for the engine.
type EngineConfig struct {
	// Planner is the decision provider. Required.
	Planner planner.Planner

	// ProviderName labels decisions in logs, metrics and artifacts.
	// Defaults to the planner's Name() when it has one.
	ProviderName string

	Executor *resilience.Executor
	Loader   scenario.Loader

	// Matcher decides crew/node compatibility. Nil means the default aliases.
	Matcher *world.Matcher

	Strategy agent.Strategy
	MaxSteps int
	Metrics  telemetry.Metrics

	// Artifacts receives one artifact per finished run. Nil disables saving.
	Artifacts artifact.Store

	// Middleware runs after the built-in logging, metrics and ledger layers.
	Middleware []middleware.Middleware

	// StrictEligibility rejects tools outside the current phase's allow list.
	StrictEligibility bool

	IDGenerator func() string
}

// Outcome is everything a finished run produced.
type Outcome struct {
	Run    *agent.Run
	World  *world.World
	Ledger *ledger.Ledger

	// Artifact locates the saved artifact when Saved is true.
	Artifact artifact.Ref
	Saved    bool
}

// NewEngine creates a new engine with the given configuration.
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if config.MaxSteps < 0 {
		return nil, fmt.Errorf("max steps must not be negative, got %d", config.MaxSteps)
	}

	e := &Engine{
		planner:           config.Planner,
		providerName:      config.ProviderName,
		executor:          config.Executor,
		loader:            config.Loader,
		strategy:          config.Strategy,
		maxSteps:          config.MaxSteps,
		metrics:           config.Metrics,
		artifacts:         config.Artifacts,
		middleware:        config.Middleware,
		strictEligibility: config.StrictEligibility,
		newID:             config.IDGenerator,
	}

	// Set defaults
	if e.strategy == "" {
		e.strategy = agent.StrategyFixed
	}
	if !e.strategy.IsValid() {
		return nil, fmt.Errorf("%w: %q", agent.ErrInvalidStrategy, e.strategy)
	}
	if e.maxSteps == 0 {
		e.maxSteps = DefaultMaxSteps
	}
	if e.executor == nil {
		e.executor = resilience.NewDefaultExecutor()
	}
	if e.metrics == nil {
		e.metrics = telemetry.NoopMetricsProvider{}
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if config.Matcher != nil {
		e.matcher = *config.Matcher
	} else {
		e.matcher = world.DefaultMatcher()
	}
	if e.providerName == "" {
		if named, ok := config.Planner.(interface{ Name() string }); ok {
			e.providerName = named.Name()
		} else {
			e.providerName = "custom"
		}
	}

	return e, nil
}

// Strategy returns the transition strategy.
func (e *Engine) Strategy() agent.Strategy {
	return e.strategy
}

// MaxSteps returns the step ceiling.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

// ProviderName returns the label used for the decision provider.
func (e *Engine) ProviderName() string {
	return e.providerName
}

// Run executes the named scenario and returns the finished run.
func (e *Engine) Run(ctx context.Context, scenarioName string) (*agent.Run, error) {
	out, err := e.Execute(ctx, scenarioName)
	if out == nil {
		return nil, err
	}
	return out.Run, err
}

// Execute loads the named scenario and runs it to completion.
func (e *Engine) Execute(ctx context.Context, scenarioName string) (*Outcome, error) {
	if e.loader == nil {
		return nil, errors.New("scenario loader is required")
	}
	w, err := e.loader.Load(ctx, scenarioName)
	if err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", scenarioName, err)
	}
	return e.ExecuteWorld(ctx, scenarioName, w)
}

// runState is the per-run wiring shared by every step.
type runState struct {
	run      *agent.Run
	world    *world.World
	ledger   *ledger.Ledger
	pack     *pack.Pack
	registry *memory.ToolRegistry
	interp   *statemachine.Interpreter
	handler  middleware.Handler
}

// ExecuteWorld runs the agent against w. The world is mutated in place.
func (e *Engine) ExecuteWorld(ctx context.Context, scenarioName string, w *world.World) (*Outcome, error) {
	if w == nil {
		return nil, errors.New("world is required")
	}

	runID := e.newID()
	run := agent.NewRun(runID, scenarioName, e.strategy, e.maxSteps)
	runLedger := ledger.New(runID)

	repairPack := repair.New(w, e.matcher)
	registry := memory.NewToolRegistry()
	if err := repairPack.Install(registry); err != nil {
		return nil, fmt.Errorf("install %s pack: %w", repairPack.Name, err)
	}

	machine, err := statemachine.NewAgentMachine()
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	interp := statemachine.NewInterpreter(machine, statemachine.NewContext(run, runLedger))

	rs := &runState{
		run:      run,
		world:    w,
		ledger:   runLedger,
		pack:     repairPack,
		registry: registry,
		interp:   interp,
		handler:  e.chain(runLedger, repairPack)(middleware.Execute),
	}

	logging.Info().
		Add(logging.RunID(runID)).
		Add(logging.Scenario(scenarioName)).
		Add(logging.Strategy(e.strategy)).
		Add(logging.Provider(e.providerName)).
		Add(logging.Int("max_steps", e.maxSteps)).
		Msg("run started")

	interp.Start()
	defer interp.Stop()
	runLedger.RecordRunStarted(scenarioName)
	e.metrics.IncrementActiveRuns(ctx)

	var runErr error
	for run.CanStep() {
		if err := ctx.Err(); err != nil {
			runErr = err
			e.abort(rs, err, "context cancelled")
			break
		}
		if err := e.step(ctx, rs); err != nil {
			runErr = err
			e.abort(rs, err, "step failed")
			break
		}
	}

	run.Finish()
	runLedger.RecordRunFinished(run.Steps, run.Phase, run.Status)
	e.metrics.RecordRunDuration(ctx, run.Duration(), string(run.Status), run.Steps)
	e.metrics.DecrementActiveRuns(ctx)

	out := &Outcome{Run: run, World: w, Ledger: runLedger}
	if e.artifacts != nil {
		ref, err := e.artifacts.Save(context.WithoutCancel(ctx), artifact.New(run, e.providerName, w, runLedger))
		if err != nil {
			logging.Error().
				Add(logging.RunID(runID)).
				Add(logging.ErrorField(err)).
				Msg("failed to save run artifact")
		} else {
			out.Artifact = ref
			out.Saved = true
		}
	}

	event := logging.Info()
	if run.Status != agent.RunStatusCompleted {
		event = logging.Warn()
	}
	event.
		Add(logging.RunID(runID)).
		Add(logging.Phase(run.Phase)).
		Add(logging.Str("status", string(run.Status))).
		Add(logging.Step(run.Steps)).
		Add(logging.Int("fallbacks", run.Fallbacks)).
		Add(logging.Duration(run.Duration())).
		Msg("run finished")

	return out, runErr
}

// abort records err and moves the run to FINAL so it settles as failed.
func (e *Engine) abort(rs *runState, err error, reason string) {
	rs.run.RecordError(err.Error())
	if !rs.interp.IsTerminal() {
		from := rs.interp.Phase()
		if terr := rs.interp.Transition(agent.PhaseFinal, reason); terr == nil {
			e.metrics.RecordStateTransition(context.Background(), from.String(), agent.PhaseFinal.String())
		}
	}
	logging.Error().
		Add(logging.RunID(rs.run.ID)).
		Add(logging.Phase(rs.run.Phase)).
		Add(logging.ErrorField(err)).
		Msg("run aborted")
}

// chain builds the per-run tool middleware.
func (e *Engine) chain(l *ledger.Ledger, p *pack.Pack) middleware.Middleware {
	mws := []middleware.Middleware{
		inframw.Logging(inframw.LoggingConfig{}),
		inframw.Metrics(inframw.MetricsConfig{Provider: e.metrics}),
		inframw.LedgerRecording(inframw.LedgerConfig{Ledger: l}),
	}
	if e.strictEligibility {
		mws = append(mws, inframw.Eligibility(inframw.EligibilityConfig{Pack: p}))
	}
	mws = append(mws, e.middleware...)
	return middleware.Chain(mws...)
}

// call is the action the controller settled on for a step.
type call struct {
	action     agent.Action
	name       string
	args       map[string]any
	overridden string
}

// step executes a single step of the agent.
func (e *Engine) step(ctx context.Context, rs *runState) error {
	run := rs.run
	run.Steps++
	step := run.Steps
	phase := rs.interp.Phase()

	payload, err := BuildContext(run, rs.world, phase, step)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	d := e.decide(ctx, rs, planner.Request{
		RunID:          run.ID,
		Step:           step,
		Phase:          phase,
		Payload:        payload,
		AllowedActions: e.allowedActions(rs.pack, phase),
	})
	rs.ledger.RecordDecision(step, phase, d)

	c := e.resolve(rs, phase, d)
	obs, failed := e.execute(ctx, rs, step, phase, c, d.Reasoning)

	if !failed {
		report, err := applyObservation(c.action, obs, run.Memory)
		if err != nil {
			msg := fmt.Sprintf("unreadable %s observation: %v", c.name, err)
			rs.ledger.RecordWarning(step, phase, msg)
			logging.Warn().
				Add(logging.RunID(run.ID)).
				Add(logging.Step(step)).
				Add(logging.ErrorField(err)).
				Msg("unreadable observation")
		}
		for _, o := range report.Outcomes {
			e.metrics.RecordAssignment(ctx, o.Success)
		}
	}

	if err := e.advance(ctx, rs, step, phase, c, d, failed); err != nil {
		return err
	}

	recorded := c.action
	if !recorded.IsTool() && recorded != agent.ActionFinalize {
		recorded = agent.ActionUnknown
	}
	run.Memory.Append(agent.StepRecord{
		Step:        step,
		Phase:       phase,
		Action:      recorded,
		Reasoning:   d.Reasoning,
		Observation: obs,
	})

	logging.Info().
		Add(logging.RunID(run.ID)).
		Add(logging.Step(step)).
		Add(logging.Phase(phase)).
		Add(logging.Action(recorded)).
		Add(logging.Reasoning(d.Reasoning)).
		Add(logging.Observation(obs)).
		Msg("step")
	e.metrics.RecordStep(ctx, phase.String(), recorded.String(), d.Fallback)

	return nil
}

// allowedActions lists the actions offered to the provider in a phase.
func (e *Engine) allowedActions(p *pack.Pack, phase agent.Phase) []string {
	if e.strategy == agent.StrategyModel {
		return append(p.ToolNames(), agent.ActionFinalize.String())
	}
	return p.AllowedInPhase(phase)
}

// decide asks the provider through the executor, substituting the safe
// default on failure.
func (e *Engine) decide(ctx context.Context, rs *runState, req planner.Request) agent.Decision {
	wasTripped := e.executor.Tripped()
	start := time.Now()

	d, err := e.executor.Decide(ctx, e.planner, req)

	if tripped := e.executor.Tripped(); tripped != wasTripped {
		e.metrics.RecordCircuitBreakerStateChange(ctx, e.providerName, tripped)
	}
	if err != nil {
		d = agent.SafeDefault("decision provider unavailable")
		rs.run.Fallbacks++
		rs.run.RecordError(fmt.Sprintf("decision provider failed: %v", err))
		rs.ledger.RecordFallback(req.Step, req.Phase, err)
		logging.Warn().
			Add(logging.RunID(req.RunID)).
			Add(logging.Step(req.Step)).
			Add(logging.Phase(req.Phase)).
			Add(logging.Provider(e.providerName)).
			Add(logging.ErrorField(err)).
			Msg("decision provider failed, using safe default")
	}
	e.metrics.RecordDecision(ctx, e.providerName, req.Phase.String(), d.Fallback, time.Since(start))
	return d
}

// resolve picks the action to perform. Under the fixed strategy the phase's
// intended tool always wins over the provider's choice.
func (e *Engine) resolve(rs *runState, phase agent.Phase, d agent.Decision) call {
	finalize := call{action: agent.ActionFinalize, name: agent.ActionFinalize.String(), args: map[string]any{}}
	if d.Fallback {
		return finalize
	}

	if e.strategy == agent.StrategyFixed {
		name, ok := rs.pack.IntendedTool(phase)
		if !ok {
			return finalize
		}
		action := agent.ParseAction(name)
		c := call{action: action, name: name, args: fixedArguments(action, d, rs.run.Memory)}
		if d.Action != action {
			c.overridden = providerAction(d)
			logging.Debug().
				Add(logging.RunID(rs.run.ID)).
				Add(logging.Phase(phase)).
				Add(logging.Action(action)).
				Add(logging.Str("provider_action", c.overridden)).
				Msg("provider action overridden")
		}
		return c
	}

	args := d.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return call{action: d.Action, name: providerAction(d), args: args}
}

func providerAction(d agent.Decision) string {
	if d.Action == agent.ActionUnknown && d.RawAction != "" {
		return d.RawAction
	}
	return d.Action.String()
}

// execute performs the action and returns its observation. failed reports
// an error observation.
func (e *Engine) execute(ctx context.Context, rs *runState, step int, phase agent.Phase, c call, reasoning string) (json.RawMessage, bool) {
	if c.action == agent.ActionFinalize {
		return finalizedObservation, false
	}

	t, ok := rs.registry.Get(c.name)
	if !c.action.IsTool() || !ok {
		msg := fmt.Sprintf("Unknown action '%s'", c.name)
		rs.ledger.RecordWarning(step, phase, msg)
		logging.Warn().
			Add(logging.RunID(rs.run.ID)).
			Add(logging.Step(step)).
			Add(logging.Phase(phase)).
			Add(logging.Str("action", c.name)).
			Msg("unknown action")
		return tool.ErrorResult(msg).Output, true
	}

	input, err := json.Marshal(c.args)
	if err != nil {
		return tool.ErrorResult(err.Error()).Output, true
	}

	result, err := rs.handler(ctx, &middleware.ExecutionContext{
		RunID:      rs.run.ID,
		Step:       step,
		Phase:      phase,
		Tool:       t,
		Input:      input,
		Reasoning:  reasoning,
		Overridden: c.overridden,
	})
	if err != nil {
		return tool.ErrorResult(err.Error()).Output, true
	}
	return result.Output, result.Failed
}

// advance moves the machine to the phase chosen for the next step.
func (e *Engine) advance(ctx context.Context, rs *runState, step int, phase agent.Phase, c call, d agent.Decision, failed bool) error {
	var (
		next   agent.Phase
		reason string
	)

	switch {
	case d.Fallback:
		next, reason = agent.PhaseFinal, "safe default"

	case e.strategy == agent.StrategyFixed:
		var runErr error
		next, reason, runErr = nextFixed(phase, rs.run.Memory, rs.world)
		if runErr != nil {
			rs.run.RecordError(runErr.Error())
		}

	default:
		var ok bool
		next, ok = nextModel(phase, d)
		reason = d.Reasoning
		if !ok {
			msg := fmt.Sprintf("unrecognized next phase %q, staying in %s", *d.NextPhase, phase)
			rs.ledger.RecordWarning(step, phase, msg)
			logging.Warn().
				Add(logging.RunID(rs.run.ID)).
				Add(logging.Step(step)).
				Add(logging.Phase(phase)).
				Add(logging.Str("next_phase", string(*d.NextPhase))).
				Msg("unrecognized next phase")
		}
		if c.action == agent.ActionFinalize && d.NextPhase == nil {
			next = agent.PhaseFinal
		}
		if planCameUpEmpty(c.action, failed, rs.run.Memory) {
			next, reason = agent.PhaseFinal, "empty repair plan"
			rs.run.RecordError(agent.ErrNoCompatibleCrew.Error())
		}
	}

	if next == phase {
		return nil
	}
	if err := rs.interp.Transition(next, reason); err != nil {
		return fmt.Errorf("transition %s -> %s: %w", phase, next, err)
	}
	e.metrics.RecordStateTransition(ctx, phase.String(), next.String())
	return nil
}

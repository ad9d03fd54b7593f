package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/auditlog"
	"main/internal/bus"
	"main/internal/codec"
	"main/internal/governance"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/policy"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
)

const submitAction = "submit-order"

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	approverID := flag.String("approver", "ops", "Approver id recorded on governance transitions")
	snapshotPath := flag.String("snapshot-path", "", "Portfolio snapshot output (optional)")
	orderInterval := flag.Duration("order-interval", 0, "Delay between orders")
	profileAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *configPath == "" {
		logs.Errorf("missing config; use -config")
		os.Exit(1)
	}
	loaded, err := ops.Load(*configPath)
	if err != nil {
		logs.Errorf("config load failed: %+v", err)
		os.Exit(1)
	}

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "gated",
			ServerAddress:   *profileAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			logs.Errorf("pyroscope start failed: %+v", err)
			os.Exit(1)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, loaded, *approverID, *snapshotPath, *orderInterval); err != nil {
		logs.Errorf("gated failed: %+v", err)
		os.Exit(1)
	}
}

// auditOpen opens the journal and scrubs the key material held by the
// resolved config; the log keeps its own copy.
func auditOpen(loaded ops.Loaded) (*auditlog.Log, error) {
	journal, err := auditlog.Open(loaded.Audit.Path, loaded.Audit.Key)
	for i := range loaded.Audit.Key {
		loaded.Audit.Key[i] = 0
	}
	return journal, err
}

func run(ctx context.Context, loaded ops.Loaded, approverID, snapshotPath string, orderInterval time.Duration) error {
	journal, err := auditOpen(loaded)
	if err != nil {
		return err
	}
	defer func() {
		_ = journal.Close()
	}()

	metrics := obs.NewMetrics()
	stateVar := governance.NewStateVar()
	supervisor := governance.NewSupervisor(stateVar, journal)

	kernel := risk.NewKernel(stateVar)
	kernel.RegisterModel(risk.NewLimitModel(loaded.Limits))
	kernel.RegisterModel(risk.NewScenarioModel(
		loaded.Stress.Scenarios,
		loaded.Stress.WorstCaseLossFraction,
		loaded.Stress.NotionalScale,
	))

	engine := policy.NewEngine()
	heartbeatAction := ""
	if loaded.Policies.Liveness != nil {
		heartbeatAction = loaded.Policies.Liveness.HeartbeatAction
		engine.RegisterPolicy(policy.NewLivenessInvariant(
			loaded.Policies.Liveness.MaxStale,
			heartbeatAction,
		))
	}
	if loaded.Policies.Stability {
		engine.RegisterPolicy(policy.NewStabilityPolicy())
	}

	portfolio := state.NewPortfolioReducer(loaded.Portfolio.Capital, loaded.Stress.NotionalScale)
	portfolio.SetExposures(
		loaded.Portfolio.EquityExposure,
		loaded.Portfolio.VolatilityExposure,
		loaded.Portfolio.AlternativesExposure,
	)

	queue := bus.NewQueue(loaded.Audit.QueueSize)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		queue.Run(context.Background(), func(e bus.Event) {
			start := time.Now()
			if err := journal.Append(e.Type, e.Payload); err != nil {
				metrics.IncAppendFailure()
				select {
				case errCh <- err:
				default:
				}
				return
			}
			metrics.ObserveAppend(time.Since(start))
		})
	}()

	publish := func(recordType schema.RecordType, payload []byte) error {
		err := queue.TryPublish(bus.Event{Type: recordType, Payload: payload})
		if err == nil {
			return nil
		}
		if errors.Is(err, bus.ErrQueueFull) {
			// The journal is the system of record; a full buffer degrades to a
			// synchronous durable append rather than dropping the decision.
			metrics.IncQueueDrop()
			return journal.Append(recordType, payload)
		}
		metrics.IncQueueClosed()
		return err
	}

	logs.Infof("gated up: journal=%s orders=%d state=%s",
		loaded.Audit.Path, len(loaded.Orders), stateVar.Load().String())

	interrupted := false
loop:
	for i, order := range loaded.Orders {
		select {
		case <-ctx.Done():
			interrupted = true
			break loop
		case <-sys.Shutdown():
			interrupted = true
			break loop
		default:
		}

		snapshot := portfolio.Snapshot()

		if heartbeatAction != "" {
			proof := engine.VerifyDecision(schema.DecisionRequest{
				Action:    heartbeatAction,
				Context:   systemStateOf(snapshot),
				Timestamp: time.Now().UTC(),
			})
			metrics.ObserveProof(proof.Approved)
			if err := publish(schema.RecordHeartbeat, nil); err != nil {
				return err
			}
		}

		proof := engine.VerifyDecision(schema.DecisionRequest{
			Action:    submitAction,
			Context:   systemStateOf(snapshot),
			Timestamp: time.Now().UTC(),
		})
		metrics.ObserveProof(proof.Approved)

		var result schema.RiskCheckResult
		if proof.Approved {
			evalStart := time.Now()
			result = kernel.ValidateOrder(order, snapshot)
			metrics.ObserveVerdict(result.Allowed, result.ModelID, time.Since(evalStart))
		} else {
			result = schema.RiskCheckResult{
				Allowed:    false,
				Reason:     proof.Constraint,
				ModelID:    "policy:" + proof.Policy,
				Confidence: 1.0,
			}
			metrics.ObserveVerdict(false, result.ModelID, 0)
		}

		payload, ok := codec.EncodeRiskDecision(nil, order.OrderID, result)
		if !ok {
			return fmt.Errorf("order %d: decision record fields too long", order.OrderID)
		}
		if err := publish(schema.RecordRiskDecision, payload); err != nil {
			return err
		}

		if result.Allowed {
			portfolio.ApplyOrder(order)
			logs.Infof("order %d %s allowed", order.OrderID, order.Symbol)
		} else {
			logs.Infof("order %d %s denied by %s: %s",
				order.OrderID, order.Symbol, result.ModelID, result.Reason)
		}

		if orderInterval > 0 && i < len(loaded.Orders)-1 {
			select {
			case <-ctx.Done():
				interrupted = true
				break loop
			case <-sys.Shutdown():
				interrupted = true
				break loop
			case <-time.After(orderInterval):
			}
		}
	}

	if interrupted {
		// Leave an auditable trail for the drain: the gate goes into
		// maintenance before it stops admitting.
		if _, err := supervisor.Transition(governance.StateMaintenance, approverID, "shutdown requested"); err != nil {
			logs.Errorf("maintenance transition failed: %+v", err)
		} else {
			logs.Info("entered maintenance for shutdown")
		}
	}

	queue.Close()
	wg.Wait()

	var appendErr error
	select {
	case appendErr = <-errCh:
	default:
	}
	if appendErr != nil {
		return appendErr
	}

	if snapshotPath != "" {
		if err := state.WriteSnapshot(snapshotPath, portfolio.ToSnapshot()); err != nil {
			return err
		}
	}

	stats := metrics.Snapshot()
	logs.Infof("metrics: allowed=%d denied=%d by_model=%v policy_ok=%d policy_reject=%d drops=%d append_fail=%d risk_eval=%+v append=%+v journal_bytes=%d",
		stats.OrdersAllowed, stats.OrdersDenied, stats.DenialsByModel,
		stats.PolicyApproved, stats.PolicyRejected,
		stats.QueueDrops, stats.AppendFailures,
		stats.RiskEvalLatency, stats.AppendLatency, journal.Size())
	return nil
}

// systemStateOf projects portfolio exposures onto the stability metric's
// inputs. With static exposures the projection is constant, so admitting
// orders never moves the Lyapunov baseline.
func systemStateOf(p schema.Portfolio) schema.SystemState {
	if p.Capital <= 0 {
		return schema.SystemState{}
	}
	gross := abs(p.EquityExposure) + abs(p.VolatilityExposure) + abs(p.AlternativesExposure)
	return schema.SystemState{
		Leverage:   gross / p.Capital,
		Volatility: abs(p.VolatilityExposure) / p.Capital,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

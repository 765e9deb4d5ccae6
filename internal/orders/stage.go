package orders

import "log/slog"

// Stage tracks one order-creation attempt through the pipeline. The
// notification stages form a best-effort sub-flow after StageCommitted; their
// outcome never changes the result already reported to the caller.
type Stage string

const (
	StageReceived     Stage = "RECEIVED"
	StageValidated    Stage = "VALIDATED"
	StageReserving    Stage = "RESERVING"
	StageReserved     Stage = "RESERVED"
	StagePersisted    Stage = "PERSISTED"
	StageCommitted    Stage = "COMMITTED"
	StageRolledBack   Stage = "ROLLED_BACK"
	StageNotifyPend   Stage = "NOTIFY_PENDING"
	StageNotified     Stage = "NOTIFIED"
	StageNotifyFailed Stage = "NOTIFY_FAILED"
)

var validNext = map[Stage]map[Stage]bool{
	StageReceived:     {StageValidated: true, StageRolledBack: true},
	StageValidated:    {StageReserving: true, StageRolledBack: true},
	StageReserving:    {StageReserved: true, StageRolledBack: true},
	StageReserved:     {StagePersisted: true, StageRolledBack: true},
	StagePersisted:    {StageCommitted: true, StageRolledBack: true},
	StageCommitted:    {StageNotifyPend: true},
	StageNotifyPend:   {StageNotified: true, StageNotifyFailed: true},
	StageRolledBack:   {},
	StageNotified:     {},
	StageNotifyFailed: {},
}

func CanTransition(from, to Stage) bool {
	return validNext[from][to]
}

// StageFunc observes pipeline progress; Repo.Create calls it as the attempt
// advances. A nil StageFunc is allowed.
type StageFunc func(Stage)

// Attempt is a logging stage tracker for one creation attempt.
type Attempt struct {
	stage Stage
	log   *slog.Logger
}

func NewAttempt(log *slog.Logger) *Attempt {
	return &Attempt{stage: StageReceived, log: log}
}

func (a *Attempt) Stage() Stage { return a.stage }

// Advance moves the attempt to the next stage and logs the transition. An
// out-of-order transition is logged and ignored rather than applied.
func (a *Attempt) Advance(to Stage) {
	if !CanTransition(a.stage, to) {
		a.log.Warn("invalid stage transition", "from", string(a.stage), "to", string(to))
		return
	}
	a.stage = to
	a.log.Info("order attempt", "stage", string(to))
}

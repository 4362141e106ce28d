package orchestrator

import "context"

// Operation is one pure domain state transition. Inputs are validated before
// the operation is constructed; Execute only enforces state-machine legality
// against the store it closes over.
//
// Execute runs inside the unit of work: the context it receives carries the
// active transaction (pkg/platform/tx), so any store honoring tx-in-context
// joins the same transaction. Operations must not invoke collaborators;
// they describe wanted side effects through Result.Effects.
type Operation interface {
	// Name labels the operation for logs, metrics, and trace spans,
	// e.g. "booking.check_in".
	Name() string
	// Execute performs the state transition and returns the updated entity
	// snapshot plus the side effects to fan out after commit.
	Execute(ctx context.Context) (*Result, error)
}

// Result is the outcome of a successful domain operation.
type Result struct {
	// Entity is the updated entity snapshot returned to the caller.
	Entity any
	// Effects are applied by the fan-out after the unit of work commits.
	Effects []Descriptor
}

// OperationFunc adapts a function to the Operation interface.
type OperationFunc struct {
	OpName string
	Fn     func(ctx context.Context) (*Result, error)
}

func (o OperationFunc) Name() string { return o.OpName }

func (o OperationFunc) Execute(ctx context.Context) (*Result, error) { return o.Fn(ctx) }

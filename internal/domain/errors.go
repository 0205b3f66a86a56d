package domain

import "fmt"

// ContractError reports an external capability returning data that violates
// its contract. It is fatal for the run: scoring and conflict resolution must
// never proceed on coerced or partially-valid collaborator output.
type ContractError struct {
	Contract string // which capability contract failed
	Detail   string // what was wrong
	Payload  any    // the offending payload, for the diagnostic
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("capability contract %q violated: %s (payload: %v)", e.Contract, e.Detail, e.Payload)
}

// NewContractError builds a ContractError for the named contract.
func NewContractError(contract, detail string, payload any) *ContractError {
	return &ContractError{Contract: contract, Detail: detail, Payload: payload}
}

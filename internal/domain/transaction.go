package domain

// TxStatus is the ledger-reported state of a transaction.
type TxStatus int

const (
	TxUnknown TxStatus = iota
	TxNotFound
	TxFailed
	TxSuccess
)

func (s TxStatus) String() string {
	switch s {
	case TxNotFound:
		return "not_found"
	case TxFailed:
		return "failed"
	case TxSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Instruction references accounts by their index in TransactionRecord.AccountKeys.
type Instruction struct {
	ProgramIndex int    `json:"programIndex"`
	Accounts     []int  `json:"accounts"`
	Data         []byte `json:"data"`
}

// TransactionRecord is a ledger-agnostic view of a finalized transaction.
type TransactionRecord struct {
	Signature    string        `json:"signature"`
	Status       TxStatus      `json:"status"`
	Err          string        `json:"err,omitempty"`
	AccountKeys  []string      `json:"accountKeys"`
	Instructions []Instruction `json:"instructions"`
}

// AccountKey resolves an index into the account list.
func (t TransactionRecord) AccountKey(i int) (string, bool) {
	if i < 0 || i >= len(t.AccountKeys) {
		return "", false
	}
	return t.AccountKeys[i], true
}

// Settled reports whether the record can no longer change.
func (t TransactionRecord) Settled() bool {
	return t.Status == TxSuccess || t.Status == TxFailed
}

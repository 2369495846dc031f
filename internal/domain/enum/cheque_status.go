package enum

// ChequeStatus tracks clearing of a cheque payment.
// It is informational only: a bounced cheque does not reopen the bills it settled.
type ChequeStatus string

const (
	ChequeStatusPending ChequeStatus = "pending"
	ChequeStatusCleared ChequeStatus = "cleared"
	ChequeStatusBounced ChequeStatus = "bounced"
)

// IsValid reports whether s is a known cheque status
func (s ChequeStatus) IsValid() bool {
	switch s {
	case ChequeStatusPending, ChequeStatusCleared, ChequeStatusBounced:
		return true
	}
	return false
}

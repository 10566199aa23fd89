package chain

import "strings"

// TxStatus is the normalized chain status of a transaction
type TxStatus string

const (
	StatusPending              TxStatus = "pending"
	StatusSuccess              TxStatus = "success"
	StatusAbortByResponse      TxStatus = "abort_by_response"
	StatusAbortByPostCondition TxStatus = "abort_by_post_condition"
	StatusFailed               TxStatus = "failed"
	StatusNotFound             TxStatus = "not_found"
)

// TransactionStatus is the result of a status lookup
type TransactionStatus struct {
	TxID       string   `json:"tx_id"`
	Status     TxStatus `json:"status"`
	RawStatus  string   `json:"raw_status,omitempty"`
	ResultRepr string   `json:"result_repr,omitempty"`
}

// ClassifyStatus maps the indexer's tx_status onto TxStatus. Unknown values,
// including mempool drops, stay pending.
func ClassifyStatus(raw string) TxStatus {
	switch raw {
	case "", "pending":
		return StatusPending
	case "success":
		return StatusSuccess
	case "abort_by_response":
		return StatusAbortByResponse
	case "abort_by_post_condition":
		return StatusAbortByPostCondition
	}
	if strings.HasPrefix(raw, "abort") || strings.HasPrefix(raw, "fail") {
		return StatusFailed
	}
	return StatusPending
}

// Terminal reports whether the status is final
func (s TxStatus) Terminal() bool {
	return s == StatusSuccess || s.Failed()
}

// Failed reports whether the chain rejected the transaction
func (s TxStatus) Failed() bool {
	switch s {
	case StatusAbortByResponse, StatusAbortByPostCondition, StatusFailed:
		return true
	}
	return false
}

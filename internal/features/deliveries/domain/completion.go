package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// WorkflowState is the state of a single completion attempt on one parcel.
// The workflow always starts from Open; re-opening a failed delivery happens
// at the record-status layer, not here.
type WorkflowState string

const (
	WorkflowOpen                   WorkflowState = "OPEN"
	WorkflowPendingDeliveryConfirm WorkflowState = "PENDING_DELIVERY_CONFIRM"
	WorkflowPendingFailureConfirm  WorkflowState = "PENDING_FAILURE_CONFIRM"
	WorkflowDelivered              WorkflowState = "DELIVERED"
	WorkflowDeliveryFailed         WorkflowState = "DELIVERY_FAILED"
)

// PaymentMethod tags how the collected amount was paid.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentMomo PaymentMethod = "momo"
)

// FailureReason is the fixed set of reasons a delivery attempt can fail with.
// ReasonOther requires a non-empty free-text detail.
type FailureReason string

const (
	ReasonRecipientUnavailable FailureReason = "recipient-unavailable"
	ReasonWrongAddress         FailureReason = "wrong-address"
	ReasonRecipientRefused     FailureReason = "recipient-refused"
	ReasonRecipientUnreachable FailureReason = "recipient-unreachable"
	ReasonOther                FailureReason = "other"
)

var (
	// ErrRecordTerminal is returned when a completion workflow is opened on a
	// record that already reached a terminal status.
	ErrRecordTerminal = errors.New("record is already in a terminal status")
	// ErrWorkflowState is returned when a workflow operation is called from
	// the wrong state.
	ErrWorkflowState = errors.New("operation not allowed in current workflow state")
)

// ValidationError carries field-level reasons a completion attempt was
// refused. It is returned before any network call; the workflow stays in its
// pending state and the caller may retry with corrected input.
type ValidationError struct {
	// Fields maps a field name to the reason it was rejected.
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, reason := range e.Fields {
		parts = append(parts, field+": "+reason)
	}
	return "completion validation failed: " + strings.Join(parts, "; ")
}

// DeliveryConfirmation is the operator/courier input closing a parcel as
// delivered. CollectedAmount is a pointer because absence and zero are
// different things: zero is a legitimate collected amount.
type DeliveryConfirmation struct {
	// PaymentMethod is how the collected amount was paid (cash or momo).
	PaymentMethod PaymentMethod `json:"payment_method"`
	// ConfirmationCode is the recipient-provided delivery code.
	ConfirmationCode string `json:"confirmation_code"`
	// CollectedAmount is what the courier actually collected.
	CollectedAmount *float64 `json:"collected_amount"`
}

// FailureReport is the operator/courier input closing a parcel as failed.
type FailureReport struct {
	// Reason is one of the fixed failure reasons.
	Reason FailureReason `json:"reason"`
	// Detail is free text; mandatory when Reason is "other".
	Detail string `json:"detail"`
}

// CompletionRequest is the outbound payload that closes one parcel on the
// station hub. An assignment may still have sibling parcels open, so the
// parcel identifier is always carried.
type CompletionRequest struct {
	// Status is the wire-level target status (DELIVERED or CANCELLED).
	Status AssignmentStatus `json:"status"`
	// ParcelID is the specific parcel being closed.
	ParcelID string `json:"parcelId"`
	// ConfirmationCode is set for DELIVERED.
	ConfirmationCode string `json:"confirmationCode,omitempty"`
	// PaymentMethod is set for DELIVERED.
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	// CollectedAmount is set for DELIVERED.
	CollectedAmount *float64 `json:"collectedAmount,omitempty"`
	// Reason is set for CANCELLED.
	Reason string `json:"reason,omitempty"`
	// IdempotencyKey makes hub-side retries of the same submission safe.
	IdempotencyKey string `json:"-"`
}

// CompletionWorkflow walks one parcel record through a terminal transition.
// It validates required evidence before emitting a CompletionRequest and
// never mutates the record itself: persistence happens on the hub and the
// caller re-fetches to observe the new state.
type CompletionWorkflow struct {
	record DeliveryRecord
	state  WorkflowState
}

// NewCompletionWorkflow opens a workflow for the given record. Records that
// already reached a terminal status are refused.
func NewCompletionWorkflow(record DeliveryRecord) (*CompletionWorkflow, error) {
	if record.IsTerminal() {
		return nil, fmt.Errorf("%w: %s", ErrRecordTerminal, record.Status)
	}
	if record.ParcelID == "" {
		return nil, &ValidationError{Fields: map[string]string{"parcel_id": "parcel identifier is required"}}
	}
	return &CompletionWorkflow{record: record, state: WorkflowOpen}, nil
}

// State returns the current workflow state.
func (w *CompletionWorkflow) State() WorkflowState {
	return w.state
}

// Record returns a copy of the record the workflow operates on.
func (w *CompletionWorkflow) Record() DeliveryRecord {
	return w.record
}

// BeginDelivery moves the workflow from Open to the pending delivery
// confirmation state (the operator opened the confirm-delivery action).
func (w *CompletionWorkflow) BeginDelivery() error {
	if w.state != WorkflowOpen {
		return fmt.Errorf("%w: %s", ErrWorkflowState, w.state)
	}
	w.state = WorkflowPendingDeliveryConfirm
	return nil
}

// BeginFailure moves the workflow from Open to the pending failure
// confirmation state.
func (w *CompletionWorkflow) BeginFailure() error {
	if w.state != WorkflowOpen {
		return fmt.Errorf("%w: %s", ErrWorkflowState, w.state)
	}
	w.state = WorkflowPendingFailureConfirm
	return nil
}

// ConfirmDelivery validates the delivery evidence and, when complete, moves
// the workflow to Delivered and returns the CompletionRequest plus the
// reconciliation outcome. A collected amount differing from the expected
// amount is reported as variance on the outcome, never refused. On
// validation failure the workflow stays pending and the caller may retry.
func (w *CompletionWorkflow) ConfirmDelivery(input DeliveryConfirmation) (*CompletionRequest, *ReconciliationOutcome, error) {
	if w.state != WorkflowPendingDeliveryConfirm {
		return nil, nil, fmt.Errorf("%w: %s", ErrWorkflowState, w.state)
	}

	fields := map[string]string{}
	if input.PaymentMethod != PaymentCash && input.PaymentMethod != PaymentMomo {
		fields["payment_method"] = "payment method must be cash or momo"
	}
	if strings.TrimSpace(input.ConfirmationCode) == "" {
		fields["confirmation_code"] = "confirmation code is required"
	}
	if input.CollectedAmount == nil {
		fields["collected_amount"] = "collected amount is required"
	}
	if len(fields) > 0 {
		return nil, nil, &ValidationError{Fields: fields}
	}

	outcome := Reconcile(&w.record, *input.CollectedAmount)

	w.state = WorkflowDelivered
	return &CompletionRequest{
		Status:           AssignmentDelivered,
		ParcelID:         w.record.ParcelID,
		ConfirmationCode: strings.TrimSpace(input.ConfirmationCode),
		PaymentMethod:    input.PaymentMethod,
		CollectedAmount:  input.CollectedAmount,
		IdempotencyKey:   uuid.NewString(),
	}, &outcome, nil
}

// ConfirmFailure validates the failure evidence and, when complete, moves
// the workflow to DeliveryFailed and returns the CompletionRequest. On
// validation failure the workflow stays pending.
func (w *CompletionWorkflow) ConfirmFailure(input FailureReport) (*CompletionRequest, error) {
	if w.state != WorkflowPendingFailureConfirm {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowState, w.state)
	}

	fields := map[string]string{}
	reason := failureReasonText(input)
	switch input.Reason {
	case ReasonRecipientUnavailable, ReasonWrongAddress, ReasonRecipientRefused, ReasonRecipientUnreachable:
		// reason text is the code itself
	case ReasonOther:
		if strings.TrimSpace(input.Detail) == "" {
			fields["detail"] = "detail is required when reason is other"
		}
	default:
		fields["reason"] = "reason must be one of the known failure reasons"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	w.state = WorkflowDeliveryFailed
	return &CompletionRequest{
		Status:         AssignmentCancelled,
		ParcelID:       w.record.ParcelID,
		Reason:         reason,
		IdempotencyKey: uuid.NewString(),
	}, nil
}

func failureReasonText(input FailureReport) string {
	if input.Reason == ReasonOther {
		return strings.TrimSpace(input.Detail)
	}
	if detail := strings.TrimSpace(input.Detail); detail != "" {
		return string(input.Reason) + ": " + detail
	}
	return string(input.Reason)
}

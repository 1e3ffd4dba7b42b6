package domain

import "time"

// DeliveryRecord is the canonical per-parcel view produced by normalization.
// It is a derived, read-mostly projection: rebuilt from the station hub
// payload on every fetch and never persisted by this service.
type DeliveryRecord struct {
	// AssignmentID identifies the courier assignment this parcel belongs to.
	AssignmentID string `json:"assignment_id"`
	// ParcelID identifies the single parcel this record describes.
	ParcelID string `json:"parcel_id"`

	// ReceiverName is the recipient's name.
	ReceiverName string `json:"receiver_name"`
	// ReceiverPhone is the recipient's phone number.
	ReceiverPhone string `json:"receiver_phone"`
	// ReceiverAddress is the delivery address.
	ReceiverAddress string `json:"receiver_address"`
	// SenderName is the sender's name.
	SenderName string `json:"sender_name"`
	// SenderPhone is the sender's phone number.
	SenderPhone string `json:"sender_phone"`
	// Description is the item description.
	Description string `json:"description"`
	// Fragile flags parcels needing careful handling.
	Fragile bool `json:"fragile"`
	// ShelfLocation is where the parcel sits at the station.
	ShelfLocation string `json:"shelf_location"`
	// HomeDelivery is true when the recipient opted for courier delivery
	// rather than station pickup.
	HomeDelivery bool `json:"home_delivery"`

	// ItemValue is the declared/inbound value of the item.
	ItemValue float64 `json:"item_value"`
	// PickupCost is the cost of collecting the parcel from the sender.
	PickupCost float64 `json:"pickup_cost"`
	// DeliveryFee is the fee for the last-mile delivery.
	DeliveryFee float64 `json:"delivery_fee"`
	// StorageCost is the accumulated shelf storage charge.
	StorageCost float64 `json:"storage_cost"`

	// CourierName identifies the assigned courier.
	CourierName string `json:"courier_name"`
	// CourierPhone is the courier's phone number.
	CourierPhone string `json:"courier_phone"`

	// Status is the parcel's lifecycle state.
	Status ParcelStatus `json:"status"`

	// AssignedAt is when the assignment was created (optional).
	AssignedAt *time.Time `json:"assigned_at,omitempty"`
	// AcceptedAt is when the courier accepted the assignment (optional).
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	// CompletedAt is when the assignment reached a terminal outcome (optional).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Delivered, Cancelled and Returned are terminal outcome flags.
	// At most one of them is set; normalization enforces the
	// delivered > cancelled > returned precedence.
	Delivered bool `json:"delivered"`
	Cancelled bool `json:"cancelled"`
	Returned  bool `json:"returned"`
}

// ApplyTerminalFlags sets the terminal outcome flags with the
// delivered > cancelled > returned precedence, so the three stay mutually
// exclusive even when the wire payload sets several.
func (r *DeliveryRecord) ApplyTerminalFlags(delivered, cancelled, returned bool) {
	r.Delivered = delivered
	r.Cancelled = !delivered && cancelled
	r.Returned = !delivered && !cancelled && returned
}

// IsTerminal reports whether the record has reached a terminal status.
func (r *DeliveryRecord) IsTerminal() bool {
	return IsTerminal(r.Status)
}

// PageInfo carries the hub's assignment-level pagination metadata. The
// counts describe assignments, not flattened parcels; RecordCount on
// DeliveryPage is the parcel-level figure.
type PageInfo struct {
	// TotalAssignments is the hub's totalElements figure.
	TotalAssignments int64 `json:"total_assignments"`
	// TotalPages is the number of assignment pages available.
	TotalPages int `json:"total_pages"`
	// Number is the current 0-based page number.
	Number int `json:"number"`
}

// DeliveryPage is one fetched-and-flattened page of delivery records.
type DeliveryPage struct {
	// Records are the flattened per-parcel records, in input order.
	Records []DeliveryRecord `json:"records"`
	// RecordCount is len(Records), surfaced separately from the
	// assignment-level page info so the two are never conflated.
	RecordCount int `json:"record_count"`
	// Page is the assignment-level pagination metadata as reported by the hub.
	Page PageInfo `json:"page"`
	// Skipped counts raw inputs dropped during normalization because they
	// carried no parcel identifier.
	Skipped int `json:"skipped"`
}

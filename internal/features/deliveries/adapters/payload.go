package adapter

import (
	"encoding/json"
	"strings"
	"time"

	"parcel-ops/internal/core/logger"
	"parcel-ops/internal/features/deliveries/domain"

	"go.uber.org/zap"
)

// The station hub has accumulated three payload shapes over the years:
//
//   - Shape A (current): assignment object with a "parcels" array
//   - Shape B (legacy): assignment object with a single "parcel" object
//   - Shape C (oldest): bare parcel object, no assignment wrapper, status
//     only derivable from boolean flags
//
// The shape is resolved exactly once per element by detectShape; nothing
// downstream ever re-checks optional fields.

type payloadShape int

const (
	shapeMultiParcel payloadShape = iota
	shapeSingleParcel
	shapeBareParcel
)

// hubPage mirrors the hub's Spring-style page envelope. Element counts are
// assignment-level, not parcel-level.
type hubPage struct {
	Content       []json.RawMessage `json:"content"`
	TotalElements int64             `json:"totalElements"`
	TotalPages    int               `json:"totalPages"`
	Number        int               `json:"number"`
}

// rawAssignment is the assignment wrapper used by shapes A and B. Parcels and
// Parcel stay raw so presence (the shape discriminator) survives decoding.
type rawAssignment struct {
	ID           string          `json:"id"`
	AssignmentID string          `json:"assignmentId"`
	Status       string          `json:"status"`
	CourierName  string          `json:"courierName"`
	CourierPhone string          `json:"courierPhone"`
	AssignedAt   *hubTime        `json:"assignedAt"`
	AcceptedAt   *hubTime        `json:"acceptedAt"`
	CompletedAt  *hubTime        `json:"completedAt"`
	Parcels      json.RawMessage `json:"parcels"`
	Parcel       json.RawMessage `json:"parcel"`
}

// rawParcel is one parcel in any shape. It carries both receiver-phone
// spellings and both the aggregate and itemized money fields; normalization
// picks the winner.
type rawParcel struct {
	ParcelID            string `json:"parcelId"`
	ID                  string `json:"id"`
	ReceiverName        string `json:"receiverName"`
	ReceiverPhone       string `json:"receiverPhone"`
	ReceiverPhoneNumber string `json:"receiverPhoneNumber"`
	ReceiverAddress     string `json:"receiverAddress"`
	SenderName          string `json:"senderName"`
	SenderPhone         string `json:"senderPhone"`
	Description         string `json:"description"`
	Fragile             bool   `json:"fragile"`
	ShelfLocation       string `json:"shelfLocation"`
	HomeDelivery        bool   `json:"homeDelivery"`

	ParcelAmount *float64 `json:"parcelAmount"`
	InboundCost  *float64 `json:"inboundCost"`
	PickUpCost   *float64 `json:"pickUpCost"`
	DeliveryCost *float64 `json:"deliveryCost"`
	StorageCost  *float64 `json:"storageCost"`

	Delivered      bool `json:"delivered"`
	Cancelled      bool `json:"cancelled"`
	Returned       bool `json:"returned"`
	ParcelAssigned bool `json:"parcelAssigned"`

	// Shape-C bare parcels may carry their assignment context inline.
	AssignmentID string `json:"assignmentId"`
	CourierName  string `json:"courierName"`
	CourierPhone string `json:"courierPhone"`
}

// assignmentContext is the shared assignment metadata stamped onto every
// record flattened out of one assignment.
type assignmentContext struct {
	id           string
	status       domain.AssignmentStatus
	courierName  string
	courierPhone string
	assignedAt   *time.Time
	acceptedAt   *time.Time
	completedAt  *time.Time
}

var knownAssignmentStatuses = map[domain.AssignmentStatus]bool{
	domain.AssignmentAssigned:  true,
	domain.AssignmentAccepted:  true,
	domain.AssignmentPickedUp:  true,
	domain.AssignmentDelivered: true,
	domain.AssignmentCancelled: true,
	domain.AssignmentReturned:  true,
}

// flattenPage normalizes every element of a hub page and flattens
// multi-parcel assignments into one DeliveryRecord per parcel, preserving
// input order. Elements without a parcel identifier are skipped and counted,
// never surfaced as an error.
func flattenPage(page hubPage) *domain.DeliveryPage {
	records := make([]domain.DeliveryRecord, 0, len(page.Content))
	skipped := 0

	for _, element := range page.Content {
		recs, s := normalizeElement(element)
		records = append(records, recs...)
		skipped += s
	}

	return &domain.DeliveryPage{
		Records:     records,
		RecordCount: len(records),
		Page: domain.PageInfo{
			TotalAssignments: page.TotalElements,
			TotalPages:       page.TotalPages,
			Number:           page.Number,
		},
		Skipped: skipped,
	}
}

// normalizeElement converts one raw content element, of whichever shape,
// into zero or more DeliveryRecords plus a skipped count.
func normalizeElement(raw json.RawMessage) ([]domain.DeliveryRecord, int) {
	var a rawAssignment
	if err := json.Unmarshal(raw, &a); err != nil {
		logger.Get().Warn("Unparseable assignment payload skipped", zap.Error(err))
		return nil, 1
	}

	switch detectShape(&a) {
	case shapeMultiParcel:
		var parcels []rawParcel
		if err := json.Unmarshal(a.Parcels, &parcels); err != nil {
			logger.Get().Warn("Unparseable parcels array skipped",
				zap.String("assignment_id", assignmentIDOf(&a)),
				zap.Error(err),
			)
			return nil, 1
		}
		ctx := contextFromAssignment(&a)
		records := make([]domain.DeliveryRecord, 0, len(parcels))
		skipped := 0
		for i := range parcels {
			record, ok := buildRecord(&parcels[i], ctx)
			if !ok {
				skipped++
				continue
			}
			records = append(records, record)
		}
		return records, skipped

	case shapeSingleParcel:
		var parcel rawParcel
		if err := json.Unmarshal(a.Parcel, &parcel); err != nil {
			logger.Get().Warn("Unparseable parcel object skipped",
				zap.String("assignment_id", assignmentIDOf(&a)),
				zap.Error(err),
			)
			return nil, 1
		}
		record, ok := buildRecord(&parcel, contextFromAssignment(&a))
		if !ok {
			return nil, 1
		}
		return []domain.DeliveryRecord{record}, 0

	default: // shapeBareParcel
		var parcel rawParcel
		if err := json.Unmarshal(raw, &parcel); err != nil {
			logger.Get().Warn("Unparseable bare parcel skipped", zap.Error(err))
			return nil, 1
		}
		record, ok := buildRecord(&parcel, contextFromBareParcel(&parcel))
		if !ok {
			return nil, 1
		}
		return []domain.DeliveryRecord{record}, 0
	}
}

// detectShape resolves the payload shape by field presence, in priority
// order: parcels array, then parcel object, then bare parcel.
func detectShape(a *rawAssignment) payloadShape {
	if fieldPresent(a.Parcels) {
		return shapeMultiParcel
	}
	if fieldPresent(a.Parcel) {
		return shapeSingleParcel
	}
	return shapeBareParcel
}

// fieldPresent reports whether a raw JSON field was supplied with a value.
func fieldPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

func contextFromAssignment(a *rawAssignment) assignmentContext {
	return assignmentContext{
		id:           assignmentIDOf(a),
		status:       parseAssignmentStatus(a.Status),
		courierName:  a.CourierName,
		courierPhone: a.CourierPhone,
		assignedAt:   timePtr(a.AssignedAt),
		acceptedAt:   timePtr(a.AcceptedAt),
		completedAt:  timePtr(a.CompletedAt),
	}
}

// contextFromBareParcel derives the assignment context a shape-C parcel
// carries inline. Its status is inferred from the boolean flags with the
// precedence: delivered, then parcelAssigned, then assigned.
func contextFromBareParcel(p *rawParcel) assignmentContext {
	status := domain.AssignmentAssigned
	if p.Delivered {
		status = domain.AssignmentDelivered
	} else if p.ParcelAssigned {
		status = domain.AssignmentAccepted
	}

	return assignmentContext{
		id:           p.AssignmentID,
		status:       status,
		courierName:  p.CourierName,
		courierPhone: p.CourierPhone,
	}
}

func assignmentIDOf(a *rawAssignment) string {
	return firstNonEmpty(a.ID, a.AssignmentID)
}

// parseAssignmentStatus maps a wire status string onto the closed
// AssignmentStatus set, warning once per unknown value; the domain mapping
// degrades unknowns to the safest status.
func parseAssignmentStatus(s string) domain.AssignmentStatus {
	status := domain.AssignmentStatus(s)
	if s != "" && !knownAssignmentStatuses[status] {
		logger.Get().Warn("Unknown assignment status on the wire", zap.String("status", s))
	}
	return status
}

// buildRecord normalizes one raw parcel into a DeliveryRecord. It returns
// false when the parcel has no identifier under either field name; such
// parcels are dropped per the malformed-input policy.
func buildRecord(p *rawParcel, ctx assignmentContext) (domain.DeliveryRecord, bool) {
	parcelID := firstNonEmpty(p.ParcelID, p.ID)
	if parcelID == "" {
		logger.Get().Warn("Parcel without identifier skipped",
			zap.String("assignment_id", ctx.id),
			zap.String("receiver", p.ReceiverName),
		)
		return domain.DeliveryRecord{}, false
	}

	record := domain.DeliveryRecord{
		AssignmentID:    ctx.id,
		ParcelID:        parcelID,
		ReceiverName:    p.ReceiverName,
		ReceiverPhone:   firstNonEmpty(p.ReceiverPhone, p.ReceiverPhoneNumber),
		ReceiverAddress: p.ReceiverAddress,
		SenderName:      p.SenderName,
		SenderPhone:     p.SenderPhone,
		Description:     p.Description,
		Fragile:         p.Fragile,
		ShelfLocation:   p.ShelfLocation,
		HomeDelivery:    p.HomeDelivery,
		CourierName:     ctx.courierName,
		CourierPhone:    ctx.courierPhone,
	}

	applyCosts(&record, p)

	record.Status = domain.MapAssignmentStatus(effectiveStatus(p, ctx.status))
	record.ApplyTerminalFlags(p.Delivered, p.Cancelled, p.Returned)

	applyTimestamps(&record, ctx)

	return record, true
}

// applyCosts fills the four cost slots. Itemized fields, when any is
// present, always win; otherwise an aggregate parcelAmount lands in the
// delivery-fee slot only, so it is never counted twice.
func applyCosts(record *domain.DeliveryRecord, p *rawParcel) {
	itemized := p.InboundCost != nil || p.PickUpCost != nil || p.DeliveryCost != nil || p.StorageCost != nil

	if itemized {
		record.ItemValue = costValue(p.InboundCost)
		record.PickupCost = costValue(p.PickUpCost)
		record.DeliveryFee = costValue(p.DeliveryCost)
		record.StorageCost = costValue(p.StorageCost)
		return
	}

	if p.ParcelAmount != nil {
		record.DeliveryFee = costValue(p.ParcelAmount)
	}
}

// costValue dereferences an optional cost, defaulting absent values to 0 and
// clamping negatives.
func costValue(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// effectiveStatus lets per-parcel terminal flags override the coarser
// assignment-level status, since siblings in one assignment close
// independently.
func effectiveStatus(p *rawParcel, assignment domain.AssignmentStatus) domain.AssignmentStatus {
	switch {
	case p.Delivered:
		return domain.AssignmentDelivered
	case p.Cancelled:
		return domain.AssignmentCancelled
	case p.Returned:
		return domain.AssignmentReturned
	default:
		return assignment
	}
}

// applyTimestamps copies the assignment timestamps, dropping any that would
// violate the non-decreasing assigned <= accepted <= completed order.
func applyTimestamps(record *domain.DeliveryRecord, ctx assignmentContext) {
	record.AssignedAt = copyTime(ctx.assignedAt)

	accepted := copyTime(ctx.acceptedAt)
	if accepted != nil && record.AssignedAt != nil && accepted.Before(*record.AssignedAt) {
		logger.Get().Warn("Dropping out-of-order acceptedAt timestamp",
			zap.String("assignment_id", ctx.id))
		accepted = nil
	}
	record.AcceptedAt = accepted

	completed := copyTime(ctx.completedAt)
	if completed != nil {
		if (record.AcceptedAt != nil && completed.Before(*record.AcceptedAt)) ||
			(record.AssignedAt != nil && completed.Before(*record.AssignedAt)) {
			logger.Get().Warn("Dropping out-of-order completedAt timestamp",
				zap.String("assignment_id", ctx.id))
			completed = nil
		}
	}
	record.CompletedAt = completed
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// hubTime handles the hub's timestamp formats: ISO8601 with or without a
// timezone offset.
type hubTime time.Time

// UnmarshalJSON parses the hub date format, tolerating null and zero values.
func (t *hubTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" || s == "" {
		*t = hubTime(time.Time{})
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		parsed, err = time.Parse("2006-01-02T15:04:05", s)
	}
	if err != nil {
		logger.Get().Warn("Failed to parse hub timestamp", zap.String("value", s), zap.Error(err))
		return nil // keep the zero time rather than failing the whole payload
	}
	*t = hubTime(parsed)
	return nil
}

// timePtr converts a decoded hubTime into an optional time.Time, treating
// zero values as absent.
func timePtr(t *hubTime) *time.Time {
	if t == nil {
		return nil
	}
	v := time.Time(*t)
	if v.IsZero() {
		return nil
	}
	return &v
}

package models

import (
	"encoding/json"
	"fmt"

	"github.com/wiredpart/parts_backend/utils"
)

func unmarshalEnum[T ~string](b []byte, values map[string]T, what string, dst *T) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("%s must be string", what)
	}
	v, err := parseEnum(str, values, what)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func parseEnum[T ~string](str string, values map[string]T, what string) (T, error) {
	v, ok := values[str]
	if !ok {
		var zero T
		return zero, utils.ValidationError("invalid %s %q", what, str)
	}
	return v, nil
}

// Deprecation

type DeprecationStatus string

const (
	DeprecationStatusNone        DeprecationStatus = "none"
	DeprecationStatusPending     DeprecationStatus = "pending"
	DeprecationStatusWindingDown DeprecationStatus = "winding_down"
	DeprecationStatusZeroStock   DeprecationStatus = "zero_stock"
	DeprecationStatusArchived    DeprecationStatus = "archived"
)

var deprecationStatuses = map[string]DeprecationStatus{
	"none":         DeprecationStatusNone,
	"pending":      DeprecationStatusPending,
	"winding_down": DeprecationStatusWindingDown,
	"zero_stock":   DeprecationStatusZeroStock,
	"archived":     DeprecationStatusArchived,
}

func (s *DeprecationStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, deprecationStatuses, "deprecation status", s)
}

func ParseDeprecationStatus(str string) (DeprecationStatus, error) {
	return parseEnum(str, deprecationStatuses, "deprecation status")
}

// Next is the stage AdvanceDeprecation moves to once its gate passes.
func (s DeprecationStatus) Next() (DeprecationStatus, bool) {
	switch s {
	case DeprecationStatusPending:
		return DeprecationStatusWindingDown, true
	case DeprecationStatusWindingDown:
		return DeprecationStatusZeroStock, true
	case DeprecationStatusZeroStock:
		return DeprecationStatusArchived, true
	case DeprecationStatusNone, DeprecationStatusArchived:
		return s, false
	}
	return s, false
}

func (s DeprecationStatus) IsCancellable() bool {
	switch s {
	case DeprecationStatusPending, DeprecationStatusWindingDown:
		return true
	case DeprecationStatusNone, DeprecationStatusZeroStock, DeprecationStatusArchived:
		return false
	}
	return false
}

func (s DeprecationStatus) IsDeprecated() bool {
	return s != DeprecationStatusNone && s != ""
}

// Transfers

type TransferDirection string

const (
	TransferDirectionOutbound TransferDirection = "outbound"
	TransferDirectionInbound  TransferDirection = "inbound"
)

var transferDirections = map[string]TransferDirection{
	"outbound": TransferDirectionOutbound,
	"inbound":  TransferDirectionInbound,
}

func (s *TransferDirection) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, transferDirections, "transfer direction", s)
}

// Label is the supply-chain history wording for a movement.
func (s TransferDirection) Label() string {
	switch s {
	case TransferDirectionInbound:
		return "returned"
	case TransferDirectionOutbound:
		return "transferred"
	}
	return string(s)
}

type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusReceived  TransferStatus = "received"
	TransferStatusCancelled TransferStatus = "cancelled"
)

var transferStatuses = map[string]TransferStatus{
	"pending":   TransferStatusPending,
	"received":  TransferStatusReceived,
	"cancelled": TransferStatusCancelled,
}

func (s *TransferStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, transferStatuses, "transfer status", s)
}

func ParseTransferStatus(str string) (TransferStatus, error) {
	return parseEnum(str, transferStatuses, "transfer status")
}

// Jobs

type JobStatus string

const (
	JobStatusActive    JobStatus = "active"
	JobStatusOnHold    JobStatus = "on_hold"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCancelled JobStatus = "cancelled"
)

var jobStatuses = map[string]JobStatus{
	"active":    JobStatusActive,
	"on_hold":   JobStatusOnHold,
	"completed": JobStatusCompleted,
	"cancelled": JobStatusCancelled,
}

func (s *JobStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, jobStatuses, "job status", s)
}

func ParseJobStatus(str string) (JobStatus, error) {
	return parseEnum(str, jobStatuses, "job status")
}

// IsOpen reports whether parts on the job still count as in use.
func (s JobStatus) IsOpen() bool {
	switch s {
	case JobStatusActive, JobStatusOnHold:
		return true
	case JobStatusCompleted, JobStatusCancelled:
		return false
	}
	return false
}

func openJobStatuses() []JobStatus {
	return []JobStatus{JobStatusActive, JobStatusOnHold}
}

// Purchase orders

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusSubmitted PurchaseOrderStatus = "submitted"
	PurchaseOrderStatusPartial   PurchaseOrderStatus = "partial"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusClosed    PurchaseOrderStatus = "closed"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

var purchaseOrderStatuses = map[string]PurchaseOrderStatus{
	"draft":     PurchaseOrderStatusDraft,
	"submitted": PurchaseOrderStatusSubmitted,
	"partial":   PurchaseOrderStatusPartial,
	"received":  PurchaseOrderStatusReceived,
	"closed":    PurchaseOrderStatusClosed,
	"cancelled": PurchaseOrderStatusCancelled,
}

func (s *PurchaseOrderStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, purchaseOrderStatuses, "purchase order status", s)
}

func ParsePurchaseOrderStatus(str string) (PurchaseOrderStatus, error) {
	return parseEnum(str, purchaseOrderStatuses, "purchase order status")
}

func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return next == PurchaseOrderStatusSubmitted || next == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusSubmitted, PurchaseOrderStatusPartial:
		return next == PurchaseOrderStatusPartial || next == PurchaseOrderStatusReceived ||
			next == PurchaseOrderStatusClosed || next == PurchaseOrderStatusCancelled
	case PurchaseOrderStatusReceived:
		return next == PurchaseOrderStatusClosed
	case PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return false
	}
	return false
}

func (s PurchaseOrderStatus) IsEditable() bool {
	return s == PurchaseOrderStatusDraft
}

func (s PurchaseOrderStatus) IsReceivable() bool {
	return s == PurchaseOrderStatusSubmitted || s == PurchaseOrderStatusPartial
}

// IsOpen is true until the order is closed or cancelled.
func (s PurchaseOrderStatus) IsOpen() bool {
	return s != PurchaseOrderStatusClosed && s != PurchaseOrderStatusCancelled
}

type AllocateTarget string

const (
	AllocateToWarehouse AllocateTarget = "warehouse"
	AllocateToTruck     AllocateTarget = "truck"
	AllocateToJob       AllocateTarget = "job"
)

var allocateTargets = map[string]AllocateTarget{
	"warehouse": AllocateToWarehouse,
	"truck":     AllocateToTruck,
	"job":       AllocateToJob,
}

func (s *AllocateTarget) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, allocateTargets, "allocation target", s)
}

// Returns

type ReturnStatus string

const (
	ReturnStatusInitiated      ReturnStatus = "initiated"
	ReturnStatusPickedUp       ReturnStatus = "picked_up"
	ReturnStatusCreditReceived ReturnStatus = "credit_received"
	ReturnStatusCancelled      ReturnStatus = "cancelled"
)

var returnStatuses = map[string]ReturnStatus{
	"initiated":       ReturnStatusInitiated,
	"picked_up":       ReturnStatusPickedUp,
	"credit_received": ReturnStatusCreditReceived,
	"cancelled":       ReturnStatusCancelled,
}

func (s *ReturnStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, returnStatuses, "return status", s)
}

func ParseReturnStatus(str string) (ReturnStatus, error) {
	return parseEnum(str, returnStatuses, "return status")
}

func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	if next == ReturnStatusCancelled {
		return s != ReturnStatusCancelled
	}
	switch s {
	case ReturnStatusInitiated:
		return next == ReturnStatusPickedUp
	case ReturnStatusPickedUp:
		return next == ReturnStatusCreditReceived
	case ReturnStatusCreditReceived, ReturnStatusCancelled:
		return false
	}
	return false
}

type ReturnReason string

const (
	ReturnReasonWrongPart ReturnReason = "wrong_part"
	ReturnReasonDamaged   ReturnReason = "damaged"
	ReturnReasonOverstock ReturnReason = "overstock"
	ReturnReasonDefective ReturnReason = "defective"
	ReturnReasonOther     ReturnReason = "other"
)

var returnReasons = map[string]ReturnReason{
	"wrong_part": ReturnReasonWrongPart,
	"damaged":    ReturnReasonDamaged,
	"overstock":  ReturnReasonOverstock,
	"defective":  ReturnReasonDefective,
	"other":      ReturnReasonOther,
}

func (s *ReturnReason) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, returnReasons, "return reason", s)
}

// Audit

type AuditType string

const (
	AuditTypeWarehouse AuditType = "warehouse"
	AuditTypeTruck     AuditType = "truck"
	AuditTypeJob       AuditType = "job"
)

var auditTypes = map[string]AuditType{
	"warehouse": AuditTypeWarehouse,
	"truck":     AuditTypeTruck,
	"job":       AuditTypeJob,
}

func (s *AuditType) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, auditTypes, "audit type", s)
}

func ParseAuditType(str string) (AuditType, error) {
	return parseEnum(str, auditTypes, "audit type")
}

type AuditStatus string

const (
	AuditStatusConfirmed   AuditStatus = "confirmed"
	AuditStatusDiscrepancy AuditStatus = "discrepancy"
	AuditStatusSkipped     AuditStatus = "skipped"
)

var auditStatuses = map[string]AuditStatus{
	"confirmed":   AuditStatusConfirmed,
	"discrepancy": AuditStatusDiscrepancy,
	"skipped":     AuditStatusSkipped,
}

func (s *AuditStatus) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, auditStatuses, "audit status", s)
}

// Notifications

type NotificationSeverity string

const (
	NotificationSeverityInfo     NotificationSeverity = "info"
	NotificationSeverityWarning  NotificationSeverity = "warning"
	NotificationSeverityCritical NotificationSeverity = "critical"
)

var notificationSeverities = map[string]NotificationSeverity{
	"info":     NotificationSeverityInfo,
	"warning":  NotificationSeverityWarning,
	"critical": NotificationSeverityCritical,
}

func (s *NotificationSeverity) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, notificationSeverities, "notification severity", s)
}

func isValidEnum[T ~string](v T, values map[string]T) bool {
	got, ok := values[string(v)]
	return ok && got == v
}

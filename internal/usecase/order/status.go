package order

import (
	"encoding/json"
	"fmt"
	"time"
)

type StatusKind string

const (
	StatusQueued     StatusKind = "queued"
	StatusProcessing StatusKind = "processing"
	StatusTransit    StatusKind = "transit"
	StatusInStore    StatusKind = "instore"
	StatusFulfilled  StatusKind = "fulfilled"
	StatusFailed     StatusKind = "failed"
)

// ShippingInfo explains a Transit status.
type ShippingInfo struct {
	Carrier        string     `json:"carrier"`
	TrackingCode   string     `json:"trackingCode"`
	EstimatedAt    *time.Time `json:"estimatedAt,omitempty"`
	DispatchedAt   time.Time  `json:"dispatchedAt"`
	ShippingMethod string     `json:"shippingMethod,omitempty"`
}

// Status is a tagged union: At is set for queued/processing/instore/fulfilled,
// Shipping for transit and Reason for failed.
type Status struct {
	Kind     StatusKind    `json:"kind"`
	At       *time.Time    `json:"at,omitempty"`
	Shipping *ShippingInfo `json:"shipping,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

func Queued(at time.Time) Status     { return Status{Kind: StatusQueued, At: &at} }
func Processing(at time.Time) Status { return Status{Kind: StatusProcessing, At: &at} }
func InStore(at time.Time) Status    { return Status{Kind: StatusInStore, At: &at} }
func Fulfilled(at time.Time) Status  { return Status{Kind: StatusFulfilled, At: &at} }
func Transit(info ShippingInfo) Status {
	return Status{Kind: StatusTransit, Shipping: &info}
}
func Failed(reason string) Status { return Status{Kind: StatusFailed, Reason: reason} }

// IsQueued reports whether the order is still waiting to leave its origin.
func IsQueued(s Status) bool {
	return s.Kind == StatusQueued || s.Kind == StatusProcessing
}

// IsNotFulfilledNorFailed reports whether the order is still on its way to its destination.
func IsNotFulfilledNorFailed(s Status) bool {
	switch s.Kind {
	case StatusQueued, StatusTransit, StatusProcessing:
		return true
	default:
		return false
	}
}

func (s Status) Validate() error {
	switch s.Kind {
	case StatusQueued, StatusProcessing, StatusInStore, StatusFulfilled:
		if s.At == nil {
			return fmt.Errorf("%w: status %s requires a timestamp", ErrInvalidStatus, s.Kind)
		}
	case StatusTransit:
		if s.Shipping == nil {
			return fmt.Errorf("%w: transit requires shipping info", ErrInvalidStatus)
		}
	case StatusFailed:
		if s.Reason == "" {
			return fmt.Errorf("%w: failed requires a reason", ErrInvalidStatus)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s.Kind)
	}
	return nil
}

func (s Status) String() string {
	switch s.Kind {
	case StatusTransit:
		if s.Shipping != nil && s.Shipping.Carrier != "" {
			return fmt.Sprintf("transit via %s", s.Shipping.Carrier)
		}
	case StatusFailed:
		return fmt.Sprintf("failed: %s", s.Reason)
	}
	return string(s.Kind)
}

// StatusAssignment is one status together with the purchases it covered and when it was set.
type StatusAssignment struct {
	Status           Status    `json:"status"`
	AssignedProducts []string  `json:"assignedProducts"`
	Timestamp        time.Time `json:"timestamp"`
}

type HistoryEntry struct {
	Item   StatusAssignment `json:"item"`
	Reason string           `json:"reason"`
}

// PickStatus is the fulfilment sub-state of a single unit.
type PickStatus struct {
	Kind  PickKind `json:"kind"`
	Other string   `json:"other,omitempty"`
}

type PickKind string

const (
	PickPending    PickKind = "pending"
	PickPicked     PickKind = "picked"
	PickFailed     PickKind = "failed"
	PickUncertain  PickKind = "uncertain"
	PickProcessing PickKind = "processing"
	PickOther      PickKind = "other"
)

var (
	Pending       = PickStatus{Kind: PickPending}
	Picked        = PickStatus{Kind: PickPicked}
	PickFailure   = PickStatus{Kind: PickFailed}
	Uncertain     = PickStatus{Kind: PickUncertain}
	PickInProcess = PickStatus{Kind: PickProcessing}
)

func OtherPick(s string) PickStatus { return PickStatus{Kind: PickOther, Other: s} }

func (p PickStatus) Validate() error {
	switch p.Kind {
	case PickPending, PickPicked, PickFailed, PickUncertain, PickProcessing:
		return nil
	case PickOther:
		if p.Other == "" {
			return fmt.Errorf("%w: other pick status needs a label", ErrInvalidStatus)
		}
		return nil
	default:
		return fmt.Errorf("%w: pick status %q", ErrInvalidStatus, p.Kind)
	}
}

// UnmarshalJSON accepts both the object form and a bare string such as "picked".
func (p *PickStatus) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.Kind, p.Other = PickKind(s), ""
		switch p.Kind {
		case PickPending, PickPicked, PickFailed, PickUncertain, PickProcessing:
		default:
			p.Kind, p.Other = PickOther, s
		}
		return nil
	}

	type raw PickStatus
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*p = PickStatus(r)
	return nil
}

package order

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/riolentius/retail-backoffice/internal/usecase/discount"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrPurchaseMissing = errors.New("product purchase not found")
	ErrInstanceMissing = errors.New("product instance not found")
)

type Type string

const (
	TypeDirect   Type = "direct"
	TypeShipment Type = "shipment"
	TypePickup   Type = "pickup"
	TypeQuote    Type = "quote"
)

// instanceNamespace seeds the UUIDv5 ids of synthesized product instances.
var instanceNamespace = uuid.MustParse("6f1c3c8e-3f0b-4d39-9a53-2a1f0e7d9b41")

type Location struct {
	StoreCode string  `json:"storeCode"`
	StoreID   string  `json:"storeId"`
	Name      string  `json:"name,omitempty"`
	Address   *string `json:"address,omitempty"`
}

type Order struct {
	ID            string            `json:"id"`
	Reference     string            `json:"reference"`
	Origin        Location          `json:"origin"`
	Destination   Location          `json:"destination"`
	Products      []ProductPurchase `json:"products"`
	Status        StatusAssignment  `json:"status"`
	StatusHistory []HistoryEntry    `json:"statusHistory"`
	Notes         []Note            `json:"notes"`
	Discount      discount.Value    `json:"discount"`
	Type          Type              `json:"orderType"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

type Note struct {
	Author    string    `json:"author"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type ProductPurchase struct {
	ID          string            `json:"id"`
	ProductCode string            `json:"productCode"`
	ProductSKU  string            `json:"productSku"`
	VariantCode string            `json:"variantCode"`
	ProductName string            `json:"productName,omitempty"`
	ProductCost float64           `json:"productCost"`
	Discount    discount.Value    `json:"discount"`
	Quantity    float64           `json:"quantity"`
	Instances   []ProductInstance `json:"instances"`
}

type ProductInstance struct {
	ID          string            `json:"id"`
	Fulfillment FulfillmentStatus `json:"fulfillmentStatus"`
}

type FulfillmentStatus struct {
	PickStatus  PickStatus        `json:"pickStatus"`
	PickHistory []PickHistoryItem `json:"pickHistory"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Notes       []Note            `json:"notes"`
}

type PickHistoryItem struct {
	Item      PickStatus `json:"item"`
	Timestamp time.Time  `json:"timestamp"`
}

// Subtotal is the line cost after the line discount.
func (p ProductPurchase) Subtotal() float64 {
	return discount.Apply(p.Discount, p.ProductCost*p.Quantity)
}

// Total applies the order discount to the sum of already discounted lines.
func (o Order) Total() float64 {
	var sum float64
	for _, p := range o.Products {
		sum += p.Subtotal()
	}
	return discount.Apply(o.Discount, sum)
}

// SetStatus replaces the current assignment and appends it to the history.
// History timestamps never go backwards: a clock reading earlier than the last
// entry is clamped to that entry.
func (o *Order) SetStatus(s Status, reason string, now time.Time) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if n := len(o.StatusHistory); n > 0 {
		if last := o.StatusHistory[n-1].Item.Timestamp; now.Before(last) {
			now = last
		}
	}
	if reason == "" {
		reason = fmt.Sprintf("Order status updated to %s", s)
	}

	assignment := StatusAssignment{
		Status:           s,
		AssignedProducts: o.purchaseIDs(),
		Timestamp:        now,
	}
	o.StatusHistory = append(o.StatusHistory, HistoryEntry{Item: assignment, Reason: reason})
	o.Status = assignment
	o.UpdatedAt = now
	return nil
}

func (o *Order) purchaseIDs() []string {
	ids := make([]string, 0, len(o.Products))
	for _, p := range o.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

func (o *Order) FindPurchase(id string) (*ProductPurchase, error) {
	for i := range o.Products {
		if o.Products[i].ID == id {
			return &o.Products[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPurchaseMissing, id)
}

func (p *ProductPurchase) FindInstance(id string) (*ProductInstance, error) {
	for i := range p.Instances {
		if p.Instances[i].ID == id {
			return &p.Instances[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInstanceMissing, id)
}

// SetPickStatus moves the previous status into the pick history before switching.
func (i *ProductInstance) SetPickStatus(s PickStatus, now time.Time) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f := &i.Fulfillment
	f.PickHistory = append(f.PickHistory, PickHistoryItem{
		Item:      f.PickStatus,
		Timestamp: f.LastUpdated,
	})
	f.PickStatus = s
	f.LastUpdated = now
	return nil
}

// UnitCount is the number of physical units a quantity stands for.
// Fractional quantities round up so weighed goods still have one trackable unit.
func UnitCount(quantity float64) int {
	if quantity <= 0 {
		return 0
	}
	return int(math.Ceil(quantity))
}

// InstanceID derives the id of the n-th unit of a purchase.
func InstanceID(purchaseID string, n int) string {
	return uuid.NewSHA1(instanceNamespace, []byte(purchaseID+"/"+strconv.Itoa(n))).String()
}

// SynthesizeInstances pads p.Instances up to UnitCount(p.Quantity) with pending units.
func SynthesizeInstances(p *ProductPurchase, now time.Time) error {
	want := UnitCount(p.Quantity)
	if len(p.Instances) > want {
		return fmt.Errorf("%w: purchase %s has %d instances for quantity %v",
			ErrInvalidInput, p.ID, len(p.Instances), p.Quantity)
	}

	for n := len(p.Instances); n < want; n++ {
		p.Instances = append(p.Instances, ProductInstance{
			ID: InstanceID(p.ID, n),
			Fulfillment: FulfillmentStatus{
				PickStatus:  Pending,
				PickHistory: []PickHistoryItem{},
				LastUpdated: now,
				Notes:       []Note{},
			},
		})
	}
	seen := make(map[string]struct{}, len(p.Instances))
	for n := range p.Instances {
		inst := &p.Instances[n]
		if inst.ID == "" {
			inst.ID = InstanceID(p.ID, n)
		}
		if _, dup := seen[inst.ID]; dup {
			return fmt.Errorf("%w: purchase %s repeats instance %s", ErrInvalidInput, p.ID, inst.ID)
		}
		seen[inst.ID] = struct{}{}

		if inst.Fulfillment.PickStatus.Kind == "" {
			inst.Fulfillment.PickStatus = Pending
		}
		if err := inst.Fulfillment.PickStatus.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

// Normalize fills derived fields of a freshly submitted order: purchase ids,
// product instances and the initial queued status.
func (o *Order) Normalize(now time.Time) error {
	if o.Reference == "" {
		return fmt.Errorf("%w: order reference is required", ErrInvalidInput)
	}
	if o.Origin.StoreCode == "" {
		return fmt.Errorf("%w: order %s has no origin store", ErrInvalidInput, o.Reference)
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Type == "" {
		o.Type = TypeDirect
	}
	if o.Notes == nil {
		o.Notes = []Note{}
	}

	for i := range o.Products {
		p := &o.Products[i]
		if p.ProductSKU == "" || p.VariantCode == "" {
			return fmt.Errorf("%w: line %d of order %s needs sku and variant", ErrInvalidInput, i, o.Reference)
		}
		if p.Quantity < 0 || p.ProductCost < 0 {
			return fmt.Errorf("%w: line %d of order %s has a negative value", ErrInvalidInput, i, o.Reference)
		}
		if p.ProductCode == "" {
			p.ProductCode = p.ProductSKU
		}
		if p.ID == "" {
			p.ID = uuid.NewSHA1(instanceNamespace,
				[]byte(o.Reference+"/"+p.ProductCode+"/"+strconv.Itoa(i))).String()
		}
		if err := SynthesizeInstances(p, now); err != nil {
			return err
		}
	}

	initial := Queued(now)
	if o.Status.Status.Kind != "" {
		initial = o.Status.Status
	}
	o.StatusHistory = nil
	if err := o.SetStatus(initial, "Order created", now); err != nil {
		return err
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

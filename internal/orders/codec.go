package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type orderRecord struct {
	ID            uuid.UUID       `json:"id"`
	CheckoutID    uuid.UUID       `json:"checkout_id"`
	UserID        string          `json:"user_id"`
	Items         []itemRecord    `json:"items"`
	Shipping      shippingRecord  `json:"shipping"`
	PaymentMethod string          `json:"payment_method"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type itemRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	SellerID string          `json:"seller_id,omitempty"`
	ImageRef string          `json:"image_ref,omitempty"`
}

type shippingRecord struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

func encodeOrders(orders []domain.Order) ([]byte, error) {
	records := make([]orderRecord, 0, len(orders))
	for _, o := range orders {
		records = append(records, mapOrderToRecord(o))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return data, nil
}

// decodeOrders returns the valid orders and how many records were dropped.
func decodeOrders(data []byte) ([]domain.Order, int, error) {
	if data == nil {
		return nil, 0, nil
	}

	var records []orderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("json.Unmarshal: %w", err)
	}

	var (
		orders  []domain.Order
		dropped int
	)
	for _, record := range records {
		o, err := mapRecordToOrder(record)
		if err != nil {
			dropped++
			continue
		}
		orders = append(orders, o)
	}

	return orders, dropped, nil
}

func mapOrderToRecord(o domain.Order) orderRecord {
	items := make([]itemRecord, 0, len(o.Items))
	for _, line := range o.Items {
		items = append(items, itemRecord{
			ID:       line.ProductID,
			Name:     line.Name,
			Price:    line.UnitPrice,
			Quantity: line.Quantity,
			SellerID: line.SellerID,
			ImageRef: line.ImageRef,
		})
	}

	return orderRecord{
		ID:            o.ID,
		CheckoutID:    o.CheckoutID,
		UserID:        o.UserID,
		Items:         items,
		Shipping:      shippingRecord(o.Shipping),
		PaymentMethod: o.PaymentMethod.String(),
		Subtotal:      o.Subtotal.Amount,
		Tax:           o.Tax.Amount,
		ShippingCost:  o.ShippingCost.Amount,
		Total:         o.Total.Amount,
		Currency:      o.Total.Currency.String(),
		Status:        o.Status.String(),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func mapRecordToOrder(record orderRecord) (domain.Order, error) {
	if record.ID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("id is empty")
	}

	status, ok := domain.ParseOrderStatus(record.Status)
	if !ok {
		return domain.Order{}, fmt.Errorf("status[%s] is not valid", record.Status)
	}

	cur, err := currency.ParseISO(record.Currency)
	if err != nil {
		return domain.Order{}, fmt.Errorf("currency[%s] is not valid: %w", record.Currency, err)
	}

	items := make([]domain.CartLine, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, domain.CartLine{
			ProductID: item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			SellerID:  item.SellerID,
			ImageRef:  item.ImageRef,
		})
	}

	return domain.Order{
		ID:            record.ID,
		CheckoutID:    record.CheckoutID,
		UserID:        record.UserID,
		Items:         items,
		Shipping:      domain.ShippingInfo(record.Shipping),
		PaymentMethod: domain.PaymentMethod(record.PaymentMethod),
		Subtotal:      domain.NewMoney(record.Subtotal, cur),
		Tax:           domain.NewMoney(record.Tax, cur),
		ShippingCost:  domain.NewMoney(record.ShippingCost, cur),
		Total:         domain.NewMoney(record.Total, cur),
		Status:        status,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}, nil
}

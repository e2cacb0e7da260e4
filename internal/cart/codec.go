package cart

import (
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type lineRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	SellerID string          `json:"seller_id,omitempty"`
	ImageRef string          `json:"image_ref,omitempty"`
}

func encodeLines(lines []domain.CartLine) ([]byte, error) {
	records := make([]lineRecord, 0, len(lines))
	for _, line := range lines {
		records = append(records, mapLineToRecord(line))
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return data, nil
}

// decodeLines returns the valid lines and how many records were dropped.
func decodeLines(data []byte) ([]domain.CartLine, int, error) {
	var records []lineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("json.Unmarshal: %w", err)
	}

	var (
		lines   []domain.CartLine
		dropped int
	)
	for _, record := range records {
		line, err := mapRecordToLine(record)
		if err != nil {
			dropped++
			continue
		}
		lines = append(lines, line)
	}

	return lines, dropped, nil
}

func mapLineToRecord(line domain.CartLine) lineRecord {
	return lineRecord{
		ID:       line.ProductID,
		Name:     line.Name,
		Price:    line.UnitPrice,
		Quantity: line.Quantity,
		SellerID: line.SellerID,
		ImageRef: line.ImageRef,
	}
}

func mapRecordToLine(record lineRecord) (domain.CartLine, error) {
	if record.ID == "" {
		return domain.CartLine{}, fmt.Errorf("id is empty")
	}
	if record.Price.IsNegative() {
		return domain.CartLine{}, fmt.Errorf("price[%s] is negative", record.Price)
	}
	if record.Quantity < 1 {
		return domain.CartLine{}, fmt.Errorf("quantity[%d] is not positive", record.Quantity)
	}

	return domain.CartLine{
		ProductID: record.ID,
		Name:      record.Name,
		UnitPrice: record.Price,
		Quantity:  record.Quantity,
		SellerID:  record.SellerID,
		ImageRef:  record.ImageRef,
	}, nil
}

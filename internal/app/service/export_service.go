package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/cosmetica-backend/internal/app/model"
	"github.com/ikkim/cosmetica-backend/internal/app/repository"
	"github.com/ikkim/cosmetica-backend/internal/storage"
	"github.com/ikkim/cosmetica-backend/pkg/logger"
	"github.com/ikkim/cosmetica-backend/pkg/money"
	"github.com/xuri/excelize/v2"
)

var ErrInvalidExportRange = errors.New("export range end must be after start")

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	ordersSheet = "Orders"
	itemsSheet  = "Items"
	exportsDir  = "exports"
)

var (
	orderHeader = []interface{}{
		"Reference", "Created", "Status", "Payment", "Customer", "Email", "Phone",
		"Shipping", "Locker", "City", "Subtotal", "Shipping Cost", "Grand Total",
	}
	itemHeader = []interface{}{
		"Reference", "Product ID", "Product", "Variant", "Quantity", "Price", "Line Total",
	}
)

type ExportResult struct {
	Filename string                `json:"filename"`
	Orders   int                   `json:"orders"`
	Content  []byte                `json:"-"`
	Archive  *storage.StoredObject `json:"archive,omitempty"`
}

type ExportService interface {
	ExportOrders(ctx context.Context, from, to time.Time) (*ExportResult, error)
}

type exportService struct {
	orderRepo repository.OrderRepository
	archive   storage.ObjectStore
}

// NewExportService builds the order exporter. archive may be nil, in which
// case exports are only returned to the caller.
func NewExportService(orderRepo repository.OrderRepository, archive storage.ObjectStore) ExportService {
	return &exportService{
		orderRepo: orderRepo,
		archive:   archive,
	}
}

func (s *exportService) ExportOrders(ctx context.Context, from, to time.Time) (*ExportResult, error) {
	if !to.After(from) {
		return nil, ErrInvalidExportRange
	}

	orders, err := s.orderRepo.FindCreatedBetween(from, to)
	if err != nil {
		return nil, err
	}

	content, err := buildOrderWorkbook(orders)
	if err != nil {
		logger.Error("Failed to build order workbook", err, map[string]interface{}{
			"orders": len(orders),
		})
		return nil, err
	}

	result := &ExportResult{
		Filename: fmt.Sprintf("orders_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102")),
		Orders:   len(orders),
		Content:  content,
	}

	if s.archive != nil {
		obj, err := s.archive.Upload(ctx, exportsDir, result.Filename, XLSXContentType, content)
		if err != nil {
			// the caller still gets the file
			logger.Error("Failed to archive order export", err, map[string]interface{}{
				"filename": result.Filename,
			})
		} else {
			result.Archive = obj
		}
	}

	logger.Info("Orders exported", map[string]interface{}{
		"from":     from,
		"to":       to,
		"orders":   len(orders),
		"archived": result.Archive != nil,
	})
	return result, nil
}

func buildOrderWorkbook(orders []model.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := writeRow(f, ordersSheet, 1, orderHeader); err != nil {
		return nil, err
	}
	if err := writeRow(f, itemsSheet, 1, itemHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(ordersSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(itemsSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	itemRow := 2
	for i, o := range orders {
		row := []interface{}{
			o.Reference,
			o.CreatedAt.Format(time.RFC3339),
			string(o.Status),
			string(o.PaymentStatus),
			o.FullName,
			o.Email,
			o.Phone,
			string(o.ShippingMethod),
			o.LockerLocation,
			o.Address.City,
			major(o.Subtotal),
			major(o.ShippingCost),
			major(o.GrandTotal),
		}
		if err := writeRow(f, ordersSheet, i+2, row); err != nil {
			return nil, err
		}

		for _, item := range o.OrderItems {
			row := []interface{}{
				o.Reference,
				item.ProductID,
				item.Name,
				item.Variant,
				item.Quantity,
				major(item.Price),
				major(item.LineTotal),
			}
			if err := writeRow(f, itemsSheet, itemRow, row); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func major(a money.Amount) float64 {
	return a.Decimal().InexactFloat64()
}

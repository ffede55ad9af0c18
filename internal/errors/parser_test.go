package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"nil error", nil, "", InternalServerError},
		{"order not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), "get order", OrderNotFound},
		{"product not found", gorm.ErrRecordNotFound, "get product", ProductNotFound},
		{"generic not found", gorm.ErrRecordNotFound, "lookup", ResourceNotFound},
		{"duplicate checkout", errors.New(`ERROR: duplicate key value violates unique constraint "idx_orders_payment_checkout_id"`), "create order", ResourceConflict},
		{"duplicate product", errors.New("UNIQUE constraint failed: products.id"), "create product", ResourceAlreadyExists},
		{"not null", errors.New("NOT NULL constraint failed: orders.email"), "create order", ValidationRequired},
		{"fk still referenced", errors.New(`violates foreign key constraint "fk" on table "order_items" is still referenced`), "delete", ResourceConflict},
		{"connection", errors.New("dial tcp: connection refused"), "create order", InternalExternalAPI},
		{"unknown", errors.New("boom"), "create order", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

// pkg/model/cleansing.go
package model

import (
	"time"
)

// CleansingOperation records a single in-place correction applied during
// conformance. Operations are collected per run and persisted to a
// tracking table for data-quality review.
type CleansingOperation struct {
	Entity        string      // Entity name (e.g. "customer", "sales_line")
	Field         string      // Field that was corrected
	OriginalValue interface{} // Original value (may be nil)
	NewValue      string      // Value after correction
	RowKey        string      // Natural key identifying the row
	Operation     string      // Kind of correction (e.g. "code_standardization")
	Reason        string      // Why the correction fired (e.g. "unmapped_code")
	CleansedAt    time.Time   // When the correction was applied
}

// NewCleansingOperation builds an operation record stamped with the
// current time.
func NewCleansingOperation(entity, field, rowKey, operation, reason string, original interface{}, newValue string) CleansingOperation {
	return CleansingOperation{
		Entity:        entity,
		Field:         field,
		OriginalValue: original,
		NewValue:      newValue,
		RowKey:        rowKey,
		Operation:     operation,
		Reason:        reason,
		CleansedAt:    time.Now(),
	}
}

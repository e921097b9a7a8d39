package cmd

import (
	"fmt"
	"testing"

	"golang-ledger-ingestion-service/pkg/errors"
)

func TestHandleError_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"structural", errors.StructuralError(errors.CodeDirectoryMissing, "/x", "/x"), 2},
		{"parse", errors.RowError(errors.CodeInvalidData, "f.csv", 1, "Date", "x", nil), 3},
		{"validation", errors.ValidationError(errors.CodeInvalidAmount, "Amount", "x", nil), 3},
		{"reference", errors.ReferenceError(errors.CodeUnknownAccount, "ghost"), 4},
		{"storage", errors.StorageError(errors.CodeQueryFailed, "insert", nil), 5},
		{"internal", errors.InternalError("boom", nil), 6},
		{"plain error", fmt.Errorf("something else"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HandleError(tt.err); got != tt.want {
				t.Errorf("HandleError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

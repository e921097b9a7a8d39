package parsers

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"golang-ledger-ingestion-service/pkg/errors"
)

// ExtractPDFText extracts layout-preserved text from a PDF statement by
// shelling out to pdftotext (poppler). The parsers only ever see the
// extracted text, so they stay testable without the binary installed.
func ExtractPDFText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", errors.StructuralError(errors.CodeFileMissing, path, path)
	}

	cmd := exec.Command("pdftotext", "-layout", path, "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.Wrap(err, errors.CategoryStructural, errors.CodeInvalidFormat,
			fmt.Sprintf("pdftotext failed for %s: %s", path, stderr.String())).
			WithSuggestion("install poppler-utils and ensure pdftotext is on PATH")
	}

	return stdout.String(), nil
}

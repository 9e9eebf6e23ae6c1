package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInvoiceNumber(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)

	t.Run("carries the date and a six-character suffix", func(t *testing.T) {
		invoice := NewInvoiceNumber(now)
		assert.Regexp(t, regexp.MustCompile(`^INV-20260829-[0-9A-F]{6}$`), invoice)
	})

	t.Run("suffixes differ between calls", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			seen[NewInvoiceNumber(now)] = true
		}
		assert.Greater(t, len(seen), 1)
	})
}

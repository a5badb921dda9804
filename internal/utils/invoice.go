package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// GenerateInvoiceNumber builds INV-YYYYMMDD-<ref>-RRRR where ref is the
// first eight characters of the order reference, upper-cased.
func GenerateInvoiceNumber(orderRef string, now time.Time) string {
	ref := strings.ToUpper(strings.ReplaceAll(orderRef, "-", ""))
	if len(ref) > 8 {
		ref = ref[:8]
	}
	if ref == "" {
		ref = "00000000"
	}

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("INV-%s-%s-%04d", now.UTC().Format("20060102"), ref, n.Int64())
}

package utils

import (
	"fmt"
	"math/rand"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference generates a unique reference such as VCTR_20261017153000_K3J9QW2Z
func GenerateReference(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s", prefix, at.UTC().Format("20060102150405"), RandomString(8))
}

// RandomString returns n random characters from the reference charset
func RandomString(n int) string {
	result := make([]byte, n)
	for i := range result {
		result[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}
	return string(result)
}

package crypto

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xchangepos/backend/internal/models"
)

// IsEVMCurrency reports whether the currency settles on an EVM-compatible chain
func IsEVMCurrency(currency string) bool {
	switch strings.ToUpper(currency) {
	case models.CryptoETH, models.CryptoAVAX, models.CryptoUSDC:
		return true
	default:
		return false
	}
}

// NormalizeWalletAddress returns the EIP-55 checksummed form of EVM addresses.
// Addresses of other chains, and anything that is not a well-formed hex
// address, are returned trimmed but otherwise untouched.
func NormalizeWalletAddress(currency, address string) string {
	address = strings.TrimSpace(address)
	if IsEVMCurrency(currency) && common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

// NormalizeTxHash returns EVM transaction hashes as lower-case 0x-prefixed hex
func NormalizeTxHash(currency, txHash string) string {
	txHash = strings.TrimSpace(txHash)
	if !IsEVMCurrency(currency) {
		return txHash
	}

	raw := strings.TrimPrefix(strings.ToLower(txHash), "0x")
	if len(raw) != 2*common.HashLength || !isHex(raw) {
		return txHash
	}
	return common.HexToHash(raw).Hex()
}

func isHex(s string) bool {
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

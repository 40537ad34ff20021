// Package walletloader supplies the wallet's address registry from a
// line-oriented addresses file.
package walletloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"wallet_engine/internal/app/port"
)

const minAddressLength = 30

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// AddressFileLoader implements port.AddressRegistry by reading base58
// addresses from a file, one per line. Blank lines and '#' comments are
// skipped; malformed lines are logged and skipped rather than failing the
// whole registry.
type AddressFileLoader struct {
	filePath   string
	loggerWarn func(msg string, args ...any)
}

// NewAddressFileLoader creates a new AddressFileLoader.
func NewAddressFileLoader(filePath string, loggerWarn func(msg string, args ...any)) port.AddressRegistry {
	return &AddressFileLoader{
		filePath:   filePath,
		loggerWarn: loggerWarn,
	}
}

// GetAddresses reads the addresses in file order.
func (l *AddressFileLoader) GetAddresses() ([]string, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open addresses file %s: %w", l.filePath, err)
	}
	defer file.Close()

	var addresses []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !isBase58Address(line) {
			if l.loggerWarn != nil {
				l.loggerWarn("Skipping invalid address format", "file", l.filePath, "line_number", lineNum, "address", line)
			}
			continue
		}
		if _, dup := seen[line]; dup {
			continue
		}
		seen[line] = struct{}{}
		addresses = append(addresses, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning addresses file %s: %w", l.filePath, err)
	}
	return addresses, nil
}

func isBase58Address(s string) bool {
	if len(s) < minAddressLength {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

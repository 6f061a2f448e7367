package walletloader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
	"github.com/peterhaasme/time-portfolio/internal/domain/entity"
)

const defaultWalletFilePath = "data/wallets.txt"

// WalletFileLoader implements port.WalletProvider by loading one address per line.
// Blank lines and lines starting with # are ignored.
type WalletFileLoader struct {
	filePath string
	isValid  func(string) bool
	logger   port.Logger
}

// NewWalletFileLoader creates a new WalletFileLoader. isValid decides which lines
// are kept; invalid lines are logged and skipped.
func NewWalletFileLoader(filePath string, isValid func(string) bool, logger port.Logger) *WalletFileLoader {
	if filePath == "" {
		filePath = defaultWalletFilePath
	}
	if logger == nil {
		logger = port.NopLogger{}
	}
	return &WalletFileLoader{filePath: filePath, isValid: isValid, logger: logger}
}

// GetWallets reads wallet addresses from the configured file path.
func (l *WalletFileLoader) GetWallets() ([]entity.Wallet, error) {
	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet file %s: %w", l.filePath, err)
	}
	defer file.Close()

	wallets, err := l.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("error scanning wallet file %s: %w", l.filePath, err)
	}
	l.logger.Info("Wallets loaded successfully from file", "count", len(wallets), "path", l.filePath)
	return wallets, nil
}

// Parse reads addresses from r. Duplicates keep their first position.
func (l *WalletFileLoader) Parse(r io.Reader) ([]entity.Wallet, error) {
	var wallets []entity.Wallet
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if l.isValid != nil && !l.isValid(line) {
			l.logger.Warn("Skipping invalid wallet address", "file", l.filePath, "line_number", lineNum, "address", line)
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		wallets = append(wallets, entity.Wallet{Address: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return wallets, nil
}

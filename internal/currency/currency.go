// Package currency resolves the user's display currency from the device
// preference store. It is a presentation helper only; no conversion happens
// anywhere in the system.
package currency

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/afoapp/bookkeeper/internal/kvstore"
)

// preferenceKey is where the stored currency code lives in the substrate.
const preferenceKey = "userCurrency"

// DefaultCode is used when no preference is stored.
const DefaultCode = "NGN"

var symbols = map[string]string{
	"NGN": "₦",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Symbol maps a currency code to its display symbol, falling back to the
// naira sign for unknown codes.
func Symbol(code string) string {
	if s, ok := symbols[code]; ok {
		return s
	}
	return symbols[DefaultCode]
}

// Supported reports whether the code can be stored as a preference.
func Supported(code string) bool {
	_, ok := symbols[code]
	return ok
}

// Preference reads and writes the stored currency code.
type Preference struct {
	store       kvstore.Store
	defaultCode string
	logger      *zap.Logger
}

// NewPreference builds a preference accessor. An empty defaultCode falls back
// to DefaultCode.
func NewPreference(store kvstore.Store, defaultCode string, logger *zap.Logger) *Preference {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCode == "" || !Supported(defaultCode) {
		defaultCode = DefaultCode
	}
	return &Preference{store: store, defaultCode: defaultCode, logger: logger}
}

// Code returns the stored currency code. Absence, read failure, or an
// unsupported stored value all degrade to the default.
func (p *Preference) Code(ctx context.Context) string {
	code, err := p.store.Get(ctx, preferenceKey)
	if err != nil {
		if !errors.Is(err, kvstore.ErrKeyNotFound) {
			p.logger.Warn("failed to load currency preference", zap.Error(err))
		}
		return p.defaultCode
	}
	if !Supported(code) {
		p.logger.Warn("stored currency code unsupported", zap.String("code", code))
		return p.defaultCode
	}
	return code
}

// Symbol returns the display symbol for the stored code.
func (p *Preference) Symbol(ctx context.Context) string {
	return Symbol(p.Code(ctx))
}

// SetCode stores a new currency code. Unsupported codes are rejected.
func (p *Preference) SetCode(ctx context.Context, code string) error {
	if !Supported(code) {
		return fmt.Errorf("unsupported currency code %q", code)
	}
	if err := p.store.Set(ctx, preferenceKey, code); err != nil {
		return fmt.Errorf("store currency preference: %w", err)
	}
	return nil
}

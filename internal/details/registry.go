// Package details extracts type-specific payment details from the free-text
// lines left over after classification.
package details

import (
	"fmt"
	"sort"

	"bulbank-notification-parser/internal/models"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// Strategy extracts one payment-details family. Implementations are pure:
// they keep no state and never retry.
type Strategy interface {
	Family() models.Family
	Extract(paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error)
}

// Registry maps canonical transaction types to strategies. It is read-only
// after construction and safe for concurrent use.
type Registry struct {
	strategies map[models.TransactionType]Strategy
	logger     logger.Logger
}

// NewRegistry validates that every strategy produces the family of the type
// it is registered for.
func NewRegistry(strategies map[models.TransactionType]Strategy) (*Registry, error) {
	r := &Registry{
		strategies: make(map[models.TransactionType]Strategy, len(strategies)),
		logger:     logger.GetGlobalLogger().WithComponent("details_registry"),
	}

	for txType, strategy := range strategies {
		if strategy == nil {
			return nil, fmt.Errorf("nil strategy registered for %s", txType)
		}
		if !txType.IsValid() {
			return nil, fmt.Errorf("strategy registered for non-canonical type %q", txType)
		}
		if strategy.Family() != txType.Family() {
			return nil, fmt.Errorf("strategy for %s produces %s, expected %s",
				txType, strategy.Family(), txType.Family())
		}
		r.strategies[txType] = strategy
	}

	return r, nil
}

// DefaultStrategies returns one strategy per canonical type
func DefaultStrategies() map[models.TransactionType]Strategy {
	fee := FixedRecipientFeeStrategy{}
	return map[models.TransactionType]Strategy{
		models.TransactionTypeCardOperation:        CardOperationStrategy{},
		models.TransactionTypeCrossBorderTransfer:  CrossBorderTransferStrategy{},
		models.TransactionTypeDeskWithdrawal:       DeskWithdrawalStrategy{},
		models.TransactionTypeTransfer:             TransferStrategy{},
		models.TransactionTypePeriodicPayment:      PeriodicPaymentStrategy{},
		models.TransactionTypePeriodicFee:          fee,
		models.TransactionTypeTransferFee:          fee,
		models.TransactionTypeInterbankTransferFee: fee,
		models.TransactionTypeInternalTransferFee:  fee,
		models.TransactionTypeWithdrawalFee:        fee,
	}
}

// NewDefaultRegistry builds the default registry and checks it covers every
// type the vocabulary can produce.
func NewDefaultRegistry(types []models.TransactionType) (*Registry, error) {
	r, err := NewRegistry(DefaultStrategies())
	if err != nil {
		return nil, errors.InternalError("build details registry", err)
	}
	if missing := r.Covers(types); len(missing) > 0 {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "vocabulary", missing,
			fmt.Errorf("no payment details strategy for %v", missing))
	}
	return r, nil
}

// Covers returns the types in the list that have no registered strategy
func (r *Registry) Covers(types []models.TransactionType) []models.TransactionType {
	var missing []models.TransactionType
	for _, t := range types {
		if _, ok := r.strategies[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// Types returns the registered types in sorted order
func (r *Registry) Types() []models.TransactionType {
	out := make([]models.TransactionType, 0, len(r.strategies))
	for t := range r.strategies {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve runs the strategy registered for txType. UNKNOWN and any other
// unregistered type fail with an unsupported transaction type error.
func (r *Registry) Resolve(txType models.TransactionType, paymentDetailsRaw, additionalDetailsRaw []string) (models.PaymentDetails, error) {
	strategy, ok := r.strategies[txType]
	if !ok {
		return nil, errors.UnsupportedTransactionType(string(txType))
	}

	d, err := strategy.Extract(paymentDetailsRaw, additionalDetailsRaw)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			appErr.WithContext("transaction_type", string(txType))
		}
		r.logger.WithError(err).WithField("transaction_type", txType).Debug("Payment details extraction failed")
		return nil, err
	}

	if d.Family() != txType.Family() {
		return nil, errors.InternalError("resolve payment details",
			fmt.Errorf("strategy for %s returned %s details", txType, d.Family()))
	}
	return d, nil
}

// ResolveRecord is Resolve applied to a parsed record
func (r *Registry) ResolveRecord(record *models.TransactionRecord) (models.PaymentDetails, error) {
	return r.Resolve(record.TransactionType, record.PaymentDetailsRaw, record.AdditionalDetailsRaw)
}

func malformed(family models.Family, format string, args ...interface{}) error {
	return errors.MalformedDocument("paymentDetails", fmt.Sprintf(format, args...), nil).
		WithContext("family", string(family))
}

// Package services orchestrates ledger mutations and their change events.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// Publisher is the event sink; *amqp.Client satisfies it.
type Publisher interface {
	PublishTransactionEvent(ctx context.Context, e *amqp.TransactionEvent) error
}

// TransactionService applies mutations to the ledger, persists them and
// publishes an event for each persisted change.
type TransactionService struct {
	store     *ledger.Store
	publisher Publisher
	closers   []func() error
	logger    *log.Logger
}

// NewTransactionService wires store and an optional publisher. closers run
// on Close in order.
func NewTransactionService(store *ledger.Store, publisher Publisher, logger *log.Logger, closers ...func() error) *TransactionService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TransactionService{
		store:     store,
		publisher: publisher,
		closers:   closers,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// Store exposes the underlying ledger.
func (s *TransactionService) Store() *ledger.Store {
	return s.store
}

// Add validates a submission and appends it as entered. The returned entry
// carries the record's position.
func (s *TransactionService) Add(ctx context.Context, tx core.Transaction) (core.Entry, error) {
	if err := tx.ValidateSubmission(); err != nil {
		return core.Entry{}, err
	}

	txs, err := s.store.Dispatch(ctx, ledger.Append(tx))
	index := len(txs) - 1
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist appended transaction",
			log.FieldOperation, log.OpAppend, log.FieldStorageKey, s.store.Key(), log.FieldError, err)
		return core.Entry{Index: index, Transaction: tx}, fmt.Errorf("append transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Transaction appended",
		log.FieldOperation, log.OpAppend,
		log.FieldIndex, index,
		log.FieldTxType, tx.Type.String(),
		log.FieldTxAmount, tx.Amount.String(),
		log.FieldTxDate, tx.Date,
		log.FieldCount, len(txs))

	s.publish(ctx, amqp.NewAppendEvent(index, tx, len(txs)))
	return core.Entry{Index: index, Transaction: tx}, nil
}

// Remove deletes the record at index. An out-of-range index changes
// nothing but is still persisted and reported.
func (s *TransactionService) Remove(ctx context.Context, index int) error {
	txs, err := s.store.Dispatch(ctx, ledger.RemoveAt(index))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist removal",
			log.FieldOperation, log.OpRemove, log.FieldIndex, index, log.FieldError, err)
		return fmt.Errorf("remove transaction %d: %w", index, err)
	}

	s.logger.InfoContext(ctx, "Transaction removed",
		log.FieldOperation, log.OpRemove,
		log.FieldIndex, index,
		log.FieldCount, len(txs))

	s.publish(ctx, amqp.NewRemoveEvent(index, len(txs)))
	return nil
}

// Get returns the record at index with its position.
func (s *TransactionService) Get(index int) (core.Entry, bool) {
	txs := s.store.Transactions()
	if index < 0 || index >= len(txs) {
		return core.Entry{}, false
	}
	return core.Entry{Index: index, Transaction: txs[index]}, true
}

// List returns the records matching filterDate with their full-sequence
// positions.
func (s *TransactionService) List(filterDate string) []core.Entry {
	return core.FilterByDate(s.store.Transactions(), filterDate)
}

// Summary aggregates the records matching filterDate.
func (s *TransactionService) Summary(filterDate string) core.Totals {
	return s.store.Summary(filterDate)
}

// Revision changes whenever the ledger does.
func (s *TransactionService) Revision() uint64 {
	return s.store.Revision()
}

func (s *TransactionService) publish(ctx context.Context, e *amqp.TransactionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, e); err != nil {
		// the change is already persisted
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish, "action", e.Action, log.FieldIndex, e.Index, log.FieldError, err)
	}
}

// Close runs the registered closers and joins their errors.
func (s *TransactionService) Close() error {
	var errs []error
	for _, closeFn := range s.closers {
		if closeFn == nil {
			continue
		}
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}

package journal

import (
	"context"
	"errors"
)

// Multi fans every record out to each journal in order and stops at the
// first error.
type Multi []Journal

func (m Multi) RecordRun(ctx context.Context, r RunRecord) error {
	for _, j := range m {
		if err := j.RecordRun(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordTrade(ctx context.Context, t TradeRecord) error {
	for _, j := range m {
		if err := j.RecordTrade(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) RecordEquity(ctx context.Context, e EquityRecord) error {
	for _, j := range m {
		if err := j.RecordEquity(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every journal and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, j := range m {
		if err := j.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package txbuilder

import (
	"encoding/base64"
	"time"

	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
	"github.com/tickvault/ledger-go-sdk/internal/rpc"
)

// toDomainRecord decodes the wire TransactionRecord's base64/wide-integer
// fields into the wire-independent domain.QueryTransaction.
func toDomainRecord(rec *rpc.TransactionRecord) (*domain.QueryTransaction, error) {
	inputData, err := base64.StdEncoding.DecodeString(rec.InputData)
	if err != nil {
		return nil, errs.Wrap(errs.KindBadHex, "malformed inputData in transaction record", err)
	}
	signature, err := base64.StdEncoding.DecodeString(rec.Signature)
	if err != nil {
		return nil, errs.Wrap(errs.KindBadHex, "malformed signature in transaction record", err)
	}

	return &domain.QueryTransaction{
		Hash:        rec.Hash,
		Amount:      uint64(rec.Amount),
		Source:      domain.Identity(rec.Source),
		Destination: domain.Identity(rec.Destination),
		TickNumber:  domain.Tick(uint64(rec.TickNumber)),
		Timestamp:   time.Unix(int64(rec.Timestamp), 0).UTC(),
		InputType:   rec.InputType,
		InputSize:   rec.InputSize,
		InputData:   inputData,
		Signature:   signature,
		MoneyFlew:   rec.MoneyFlew,
	}, nil
}

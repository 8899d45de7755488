package transfer

import (
	"encoding/binary"
	"fmt"

	"github.com/tickvault/ledger-go-sdk/internal/crypto"
	"github.com/tickvault/ledger-go-sdk/internal/domain"
	"github.com/tickvault/ledger-go-sdk/internal/errs"
)

// Send-many is the reference procedure payload shape of §6.5: a fixed
// 1000-byte buffer holding up to 25 destination/amount pairs.
const (
	sendManyBufferSize   = 1000
	sendManyMaxTransfers = 25
	sendManyPubKeySize   = 32
	sendManyAmountOffset = 800
	sendManyAmountSize   = 8
)

// SendManyTransfer is one destination/amount pair of a send-many call.
type SendManyTransfer struct {
	Destination domain.Identity
	Amount      int64
}

// EncodeSendMany builds the §6.5 reference procedure payload: 25 slots of
// 32-byte destination public keys starting at offset 0, followed by 25
// signed 64-bit little-endian amounts starting at offset 800. Unused
// slots stay zero-filled. More than 25 transfers is rejected.
func EncodeSendMany(collaborator crypto.Collaborator, transfers []SendManyTransfer) ([]byte, error) {
	if len(transfers) > sendManyMaxTransfers {
		return nil, errs.New(errs.KindTooManyEntries, fmt.Sprintf("send-many supports at most %d transfers, got %d", sendManyMaxTransfers, len(transfers)))
	}

	buf := make([]byte, sendManyBufferSize)
	for i, t := range transfers {
		pk, err := collaborator.PublicKeyFromIdentity(t.Destination)
		if err != nil {
			return nil, err
		}
		copy(buf[i*sendManyPubKeySize:(i+1)*sendManyPubKeySize], pk[:])

		off := sendManyAmountOffset + i*sendManyAmountSize
		binary.LittleEndian.PutUint64(buf[off:off+sendManyAmountSize], uint64(t.Amount))
	}
	return buf, nil
}

// WithSendMany encodes transfers and sets them as the procedure call's
// input, discarding any previously set InputValue/Codec.
func (r ProcedureRequest) WithSendMany(collaborator crypto.Collaborator, transfers []SendManyTransfer) (ProcedureRequest, error) {
	encoded, err := EncodeSendMany(collaborator, transfers)
	if err != nil {
		return ProcedureRequest{}, err
	}
	r.InputBytes = encoded
	r.InputValue = nil
	r.Codec = nil
	return r, nil
}

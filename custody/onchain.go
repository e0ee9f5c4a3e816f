package custody

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/openraise/libraise-go/chain"
	"github.com/openraise/libraise-go/paymail"
)

const (
	defaultFeeRate = 1 // satoshis per byte

	// Deposits need at least one confirmation before Pull accepts them.
	minDepositConfirmations = 1
)

// OnChainGateway settles pulls and pushes against a single-key escrow
// address derived from the operator key. Push destinations may be plain
// addresses or paymail handles; handles are resolved to locking scripts
// through the payout host.
type OnChainGateway struct {
	Chain    chain.Service
	Operator *ec.PrivateKey

	// FeeRate is in satoshis per byte. Zero means defaultFeeRate.
	FeeRate uint64

	// resolveOutputs maps a paymail handle to payout outputs. Tests swap it
	// out; production uses the network resolver.
	resolveOutputs func(handle string, amount uint64) ([]paymail.Output, error)
}

// NewOnChainGateway creates a gateway spending from the operator's escrow
// address.
func NewOnChainGateway(svc chain.Service, operator *ec.PrivateKey, feeRate uint64) *OnChainGateway {
	return &OnChainGateway{
		Chain:          svc,
		Operator:       operator,
		FeeRate:        feeRate,
		resolveOutputs: paymail.ResolvePayoutOutputs,
	}
}

// EscrowAddress returns the P2PKH address funds are escrowed at.
func (g *OnChainGateway) EscrowAddress() (string, error) {
	addr, err := script.NewAddressFromPublicKey(g.Operator.PubKey(), true)
	if err != nil {
		return "", fmt.Errorf("%w: escrow address: %w", ErrTxBuild, err)
	}
	return addr.AddressString, nil
}

// Pull verifies that a deposit of amount landed at the escrow address. The
// from argument is recorded by the caller for audit; on-chain the deposit is
// matched by amount and confirmation count.
func (g *OnChainGateway) Pull(ctx context.Context, from string, amount uint64) error {
	escrow, err := g.EscrowAddress()
	if err != nil {
		return err
	}
	if err := g.Chain.ImportAddress(ctx, escrow); err != nil {
		return fmt.Errorf("watch escrow address: %w", err)
	}

	utxos, err := g.Chain.ListUnspent(ctx, escrow)
	if err != nil {
		return fmt.Errorf("list escrow outputs: %w", err)
	}

	for _, u := range utxos {
		if u.Amount == amount && u.Confirmations >= minDepositConfirmations {
			return nil
		}
	}
	return fmt.Errorf("%w: no confirmed output of %d satoshis from %s", ErrDepositNotFound, amount, from)
}

// Push pays amount from escrow to the destination and returns the txid.
func (g *OnChainGateway) Push(ctx context.Context, to string, amount uint64) (string, error) {
	if amount == 0 {
		return "", fmt.Errorf("%w: zero amount", ErrInvalidDestination)
	}

	outputs, err := g.destinationOutputs(to, amount)
	if err != nil {
		return "", err
	}

	escrow, err := g.EscrowAddress()
	if err != nil {
		return "", err
	}
	utxos, err := g.Chain.ListUnspent(ctx, escrow)
	if err != nil {
		return "", fmt.Errorf("list escrow outputs: %w", err)
	}

	tx, err := g.buildPayoutTx(utxos, outputs, amount)
	if err != nil {
		return "", err
	}

	txid, err := g.Chain.BroadcastTx(ctx, hex.EncodeToString(tx.Bytes()))
	if err != nil {
		return "", fmt.Errorf("broadcast payout: %w", err)
	}
	return txid, nil
}

// destinationOutputs turns a destination string into locking-script outputs.
// A string containing '@' is treated as a paymail handle, anything else as a
// P2PKH address.
func (g *OnChainGateway) destinationOutputs(to string, amount uint64) ([]paymail.Output, error) {
	if strings.Contains(to, "@") {
		resolve := g.resolveOutputs
		if resolve == nil {
			resolve = paymail.ResolvePayoutOutputs
		}
		outputs, err := resolve(to, amount)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %w", ErrInvalidDestination, to, err)
		}
		return outputs, nil
	}

	addr, err := script.NewAddressFromString(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDestination, to, err)
	}
	lock, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: lock script for %s: %w", ErrTxBuild, to, err)
	}
	return []paymail.Output{{Script: []byte(*lock), Satoshis: amount}}, nil
}

// buildPayoutTx selects escrow UTXOs, builds the payout transaction with
// change back to escrow, and signs every input with the operator key.
func (g *OnChainGateway) buildPayoutTx(utxos []*chain.UTXO, outputs []paymail.Output, amount uint64) (*transaction.Transaction, error) {
	feeRate := g.FeeRate
	if feeRate == 0 {
		feeRate = defaultFeeRate
	}

	// Greedy selection: take UTXOs until inputs cover amount plus the fee
	// estimated at ~148 bytes per input, ~40 per output, 10 overhead.
	var (
		selected   []*chain.UTXO
		totalInput uint64
		estFee     uint64
	)
	for _, u := range utxos {
		selected = append(selected, u)
		totalInput += u.Amount
		estSize := uint64(10 + len(selected)*148 + (len(outputs)+1)*40)
		estFee = estSize * feeRate
		if totalInput >= amount+estFee {
			break
		}
	}
	if totalInput < amount+estFee {
		return nil, fmt.Errorf("%w: have %d satoshis, need %d (amount=%d + fee~%d)",
			ErrInsufficientFunds, totalInput, amount+estFee, amount, estFee)
	}

	tx := transaction.NewTransaction()

	for _, u := range selected {
		txidHash, err := txidToHash(u.TxID)
		if err != nil {
			return nil, err
		}
		tx.AddInput(&transaction.TransactionInput{
			SourceTXID:       txidHash,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   0xffffffff,
		})
	}

	for _, o := range outputs {
		lockScript := script.Script(o.Script)
		tx.AddOutput(&transaction.TransactionOutput{
			LockingScript: &lockScript,
			Satoshis:      o.Satoshis,
		})
	}

	change := totalInput - amount - estFee
	if change > 0 {
		addr, err := script.NewAddressFromPublicKey(g.Operator.PubKey(), true)
		if err != nil {
			return nil, fmt.Errorf("%w: change address: %w", ErrTxBuild, err)
		}
		changeScript, err := p2pkh.Lock(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: change script: %w", ErrTxBuild, err)
		}
		tx.AddOutput(&transaction.TransactionOutput{
			LockingScript: changeScript,
			Satoshis:      change,
		})
	}

	for i, u := range selected {
		lockBytes, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d script: %w", ErrTxBuild, i, err)
		}
		tx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      u.Amount,
			LockingScript: script.NewFromBytes(lockBytes),
		})

		unlocker, err := p2pkh.Unlock(g.Operator, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: unlocker for input %d: %w", ErrTxBuild, i, err)
		}
		tx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	if err := tx.Sign(); err != nil {
		return nil, fmt.Errorf("%w: sign: %w", ErrTxBuild, err)
	}
	return tx, nil
}

// txidToHash converts a display-order hex txid into a chainhash.
func txidToHash(txid string) (*chainhash.Hash, error) {
	raw, err := hex.DecodeString(txid)
	if err != nil || len(raw) != chainhash.HashSize {
		return nil, fmt.Errorf("%w: invalid txid %q", ErrTxBuild, txid)
	}
	// Display order is byte-reversed from wire order.
	for i, j := 0, len(raw)-1; i < j; i, j = i+1, j-1 {
		raw[i], raw[j] = raw[j], raw[i]
	}
	h, err := chainhash.NewHash(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid txid %q: %w", ErrTxBuild, txid, err)
	}
	return h, nil
}

var _ Gateway = (*OnChainGateway)(nil)

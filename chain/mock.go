package chain

import "context"

// MockService is a test double for Service. Function fields must be set
// before the corresponding method is called.
type MockService struct {
	ListUnspentFn   func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn   func(ctx context.Context, rawTxHex string) (string, error)
	ImportAddressFn func(ctx context.Context, address string) error
	GetTxStatusFn   func(ctx context.Context, txid string) (*TxStatus, error)
}

func (m *MockService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}
func (m *MockService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
func (m *MockService) ImportAddress(ctx context.Context, address string) error {
	return m.ImportAddressFn(ctx, address)
}
func (m *MockService) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	return m.GetTxStatusFn(ctx, txid)
}

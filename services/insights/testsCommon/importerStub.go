package testsCommon

import "context"

// ImporterStub -
type ImporterStub struct {
	ImportJSONHandler func(ctx context.Context, payload []byte) (int, error)
}

// ImportJSON -
func (stub *ImporterStub) ImportJSON(ctx context.Context, payload []byte) (int, error) {
	if stub.ImportJSONHandler != nil {
		return stub.ImportJSONHandler(ctx, payload)
	}

	return 0, nil
}

// IsInterfaceNil -
func (stub *ImporterStub) IsInterfaceNil() bool {
	return stub == nil
}

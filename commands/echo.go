package commands

// EchoRequest carries arbitrary bytes the device returns unchanged.
type EchoRequest struct {
	Data []byte
}

func (e *EchoRequest) Code() Code               { return CodeEcho }
func (e *EchoRequest) Marshal() ([]byte, error) { return e.Data, nil }

// EchoResponse is the data echoed back.
type EchoResponse struct {
	Data []byte
}

func DecodeEchoResponse(payload []byte) (*EchoResponse, error) {
	return &EchoResponse{Data: payload}, nil
}

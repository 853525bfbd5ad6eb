package commands

import "github.com/riftlabs/yubihsm-go/wire"

// ResetDeviceRequest has no payload; the device reboots in response,
// tearing down every open session regardless of whether the reply makes
// it back to the caller.
type ResetDeviceRequest struct{}

func (ResetDeviceRequest) Code() Code               { return CodeResetDevice }
func (ResetDeviceRequest) Marshal() ([]byte, error) { return nil, nil }

// BlinkDeviceRequest blinks the HSM's status LED for NumSeconds.
type BlinkDeviceRequest struct {
	NumSeconds uint8
}

func (b *BlinkDeviceRequest) Code() Code { return CodeBlinkDevice }
func (b *BlinkDeviceRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint8(b.NumSeconds)
	return w.Out(), nil
}

// DecodeBlinkDeviceRequest decodes a BlinkDevice command body.
func DecodeBlinkDeviceRequest(body []byte) (*BlinkDeviceRequest, error) {
	r := wire.NewReader(body)
	secs, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return &BlinkDeviceRequest{NumSeconds: secs}, r.Done()
}

// DecodeSetLogIndexRequest decodes a SetLogIndex command body.
func DecodeSetLogIndexRequest(body []byte) (*SetLogIndexRequest, error) {
	r := wire.NewReader(body)
	idx, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &SetLogIndexRequest{Index: idx}, r.Done()
}

// DeviceInfoRequest has no payload.
type DeviceInfoRequest struct{}

func (DeviceInfoRequest) Code() Code               { return CodeDeviceInfo }
func (DeviceInfoRequest) Marshal() ([]byte, error) { return nil, nil }

// DeviceInfoResponse reports firmware/serial identification.
type DeviceInfoResponse struct {
	MajorVersion    uint8
	MinorVersion    uint8
	BuildVersion    uint8
	SerialNumber    uint32
	LogStoreCapacity uint8
	LogStoreUsed     uint8
	Algorithms       []Algorithm
}

func DecodeDeviceInfoResponse(payload []byte) (*DeviceInfoResponse, error) {
	r := wire.NewReader(payload)
	major, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	minor, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	build, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	serial, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	cap_, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	used, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	rest := r.Rest()
	algs := make([]Algorithm, len(rest))
	for i, b := range rest {
		algs[i] = Algorithm(b)
	}
	return &DeviceInfoResponse{
		MajorVersion:     major,
		MinorVersion:     minor,
		BuildVersion:     build,
		SerialNumber:     serial,
		LogStoreCapacity: cap_,
		LogStoreUsed:     used,
		Algorithms:       algs,
	}, nil
}

func (d *DeviceInfoResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint8(d.MajorVersion)
	w.Uint8(d.MinorVersion)
	w.Uint8(d.BuildVersion)
	w.Uint32(d.SerialNumber)
	w.Uint8(d.LogStoreCapacity)
	w.Uint8(d.LogStoreUsed)
	for _, a := range d.Algorithms {
		w.Uint8(uint8(a))
	}
	return w.Out()
}

// GetStorageInfoRequest has no payload.
type GetStorageInfoRequest struct{}

func (GetStorageInfoRequest) Code() Code               { return CodeGetStorageInfo }
func (GetStorageInfoRequest) Marshal() ([]byte, error) { return nil, nil }

// GetStorageInfoResponse reports object-store capacity.
type GetStorageInfoResponse struct {
	TotalRecords uint16
	FreeRecords  uint16
	TotalPages   uint16
	FreePages    uint16
	PageSize     uint16
}

func DecodeGetStorageInfoResponse(payload []byte) (*GetStorageInfoResponse, error) {
	r := wire.NewReader(payload)
	total, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	free, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	totalPages, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	freePages, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	pageSize, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	return &GetStorageInfoResponse{total, free, totalPages, freePages, pageSize}, r.Done()
}

func (s *GetStorageInfoResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint16(s.TotalRecords)
	w.Uint16(s.FreeRecords)
	w.Uint16(s.TotalPages)
	w.Uint16(s.FreePages)
	w.Uint16(s.PageSize)
	return w.Out()
}

// LogEntry is one entry of the audit log.
type LogEntry struct {
	Number    uint16
	Command   Code
	Length    uint16
	SessionKey uint16
	TargetKey  uint16
	SecondKey  uint16
	Result     ErrorKind
	Timestamp  uint32
	Digest     [16]byte
}

// GetLogEntriesRequest has no payload.
type GetLogEntriesRequest struct{}

func (GetLogEntriesRequest) Code() Code               { return CodeGetLogEntries }
func (GetLogEntriesRequest) Marshal() ([]byte, error) { return nil, nil }

// GetLogEntriesResponse reports the audit log's boot/auth event counters
// and any buffered entries. The simulator always returns zero entries
// (spec.md §4.7 does not model a real audit log).
type GetLogEntriesResponse struct {
	UnloggedBootEvents uint16
	UnloggedAuthEvents uint16
	Entries            []LogEntry
}

// DecodeGetLogEntriesResponse decodes a GetLogEntries response payload.
func DecodeGetLogEntriesResponse(payload []byte) (*GetLogEntriesResponse, error) {
	r := wire.NewReader(payload)
	unloggedBoot, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	unloggedAuth, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	n, err := r.Uint16()
	if err != nil {
		return nil, err
	}
	resp := &GetLogEntriesResponse{UnloggedBootEvents: unloggedBoot, UnloggedAuthEvents: unloggedAuth}
	for i := uint16(0); i < n; i++ {
		num, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		code, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		length, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		sessKey, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		targetKey, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		secondKey, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		result, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		ts, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		digest, err := r.Fixed(16)
		if err != nil {
			return nil, err
		}
		e := LogEntry{
			Number:     num,
			Command:    Code(code),
			Length:     length,
			SessionKey: sessKey,
			TargetKey:  targetKey,
			SecondKey:  secondKey,
			Result:     ErrorKind(result),
			Timestamp:  ts,
		}
		copy(e.Digest[:], digest)
		resp.Entries = append(resp.Entries, e)
	}
	return resp, r.Done()
}

func (l *GetLogEntriesResponse) Marshal() []byte {
	w := wire.NewWriter()
	w.Uint16(l.UnloggedBootEvents)
	w.Uint16(l.UnloggedAuthEvents)
	w.Uint16(uint16(len(l.Entries)))
	for _, e := range l.Entries {
		w.Uint16(e.Number)
		w.Uint8(uint8(e.Command))
		w.Uint16(e.Length)
		w.Uint16(e.SessionKey)
		w.Uint16(e.TargetKey)
		w.Uint16(e.SecondKey)
		w.Uint8(uint8(e.Result))
		w.Uint32(e.Timestamp)
		w.Bytes(e.Digest[:])
	}
	return w.Out()
}

// SetLogIndexRequest acknowledges audit log entries up to Index.
type SetLogIndexRequest struct {
	Index uint16
}

func (s *SetLogIndexRequest) Code() Code { return CodeSetLogIndex }
func (s *SetLogIndexRequest) Marshal() ([]byte, error) {
	w := wire.NewWriter()
	w.Uint16(s.Index)
	return w.Out(), nil
}

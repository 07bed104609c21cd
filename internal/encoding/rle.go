package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRLE encodes packed voxel ids into base64(varint pairs).
// The pairs are (packed_id, run_len) repeated.
func EncodeRLE(ids []uint16) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(ids) {
		v := ids[i]
		run := 1
		for j := i + 1; j < len(ids) && ids[j] == v && run < 1<<31; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRLE reverses EncodeRLE. Decoding fails once the output would exceed
// limit ids, so a short payload cannot expand without bound.
func DecodeRLE(b64 string, limit int) ([]uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []uint16
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 0xFFFF {
			return nil, fmt.Errorf("voxel id too large: %d", v)
		}
		if run > uint64(limit-len(out)) {
			return nil, fmt.Errorf("run of %d exceeds limit %d", run, limit)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, uint16(v))
		}
	}
	return out, nil
}

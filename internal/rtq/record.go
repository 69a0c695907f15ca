package rtq

import (
	"encoding/binary"
	"hash/crc32"
)

// Entry encoding: varint metaLen | meta | payload | crc32c(meta|payload).
// Meta carries the push timestamp (8 bytes, ms, big-endian).

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeEntry(tsMs int64, payload []byte) []byte {
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], uint64(tsMs))

	out := make([]byte, 0, 1+len(meta)+len(payload)+4)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], uint64(len(meta)))
	out = append(out, tmp[:n]...)
	out = append(out, meta[:]...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, meta[:])
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

func decodeEntry(b []byte) (tsMs int64, payload []byte, ok bool) {
	if len(b) < 1+4 {
		return 0, nil, false
	}
	mlen, n := binary.Uvarint(b)
	if n <= 0 || int(n)+int(mlen)+4 > len(b) {
		return 0, nil, false
	}
	meta := b[n : n+int(mlen)]
	body := b[n+int(mlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, meta)
	crc = crc32.Update(crc, castagnoli, body)
	if crc != expect {
		return 0, nil, false
	}
	if len(meta) >= 8 {
		tsMs = int64(binary.BigEndian.Uint64(meta[:8]))
	}
	return tsMs, append([]byte(nil), body...), true
}

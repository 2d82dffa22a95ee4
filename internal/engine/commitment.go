package engine

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// Commitment computes the sealed-bid commitment hash. The hash binds the bid
// to the bidder, the cycle number and the group's own identity, so a
// commitment observed on the wire cannot be replayed by another member, in
// another cycle, or against another group instance.
//
// Layout: bid (8 bytes BE) || cycle (8 bytes BE) || len(salt) (4 bytes BE) ||
// salt || len(bidder) (4 bytes BE) || bidder || groupID. Variable-length
// fields are length-prefixed so no two inputs share an encoding.
func Commitment(bid uint64, salt []byte, bidder string, cycle uint64, groupID string) [32]byte {
	buf := make([]byte, 0, 24+len(salt)+len(bidder)+len(groupID))

	var n [8]byte
	binary.BigEndian.PutUint64(n[:], bid)
	buf = append(buf, n[:]...)
	binary.BigEndian.PutUint64(n[:], cycle)
	buf = append(buf, n[:]...)

	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(salt)))
	buf = append(buf, l[:]...)
	buf = append(buf, salt...)
	binary.BigEndian.PutUint32(l[:], uint32(len(bidder)))
	buf = append(buf, l[:]...)
	buf = append(buf, bidder...)
	buf = append(buf, groupID...)

	return sha3.Sum256(buf)
}

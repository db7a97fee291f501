package shogi

// Zobrist keys for the position fingerprint (§3): board+hand+side derive a
// 64-bit key. Hand counts are keyed per-count (not per-unit XOR) so that
// holding two of a kind is distinguishable from holding zero.
const maxHandCount = 19

var (
	zobristBoard [ColorNB][PieceTypeNB][BoardSize]uint64
	zobristHand  [ColorNB][7][maxHandCount]uint64
	zobristSide  uint64
)

type splitmix64 struct{ state uint64 }

func (s *splitmix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	rng := &splitmix64{state: 0x5347494B4F55}
	for c := Color(0); c < ColorNB; c++ {
		for pt := PieceType(0); pt < PieceTypeNB; pt++ {
			for sq := 0; sq < BoardSize; sq++ {
				zobristBoard[c][pt][sq] = rng.next()
			}
		}
		for h := 0; h < 7; h++ {
			for n := 0; n < maxHandCount; n++ {
				zobristHand[c][h][n] = rng.next()
			}
		}
	}
	zobristSide = rng.next()
}

// ExclusionKeyXor is XORed into the plain key to derive the singular-
// extension exclusion probe key (§3).
const ExclusionKeyXor uint64 = 0x5A5A5A5A5A5A5A5A

// NullMoveKeyXor is XORed (additionally, side-dependent) to derive the
// one-ply-pass probe key used while verifying null-move search.
var NullMoveKeyXor = [ColorNB]uint64{0x1234567890ABCDEF, 0xFEDCBA0987654321}

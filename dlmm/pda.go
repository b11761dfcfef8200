package dlmm

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// DeriveEventAuthorityPDA derives the anchor event authority of the program.
func DeriveEventAuthorityPDA() (solana.PublicKey, error) {
	seeds := [][]byte{[]byte("__event_authority")}
	address, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return address, nil
}

// DeriveBinArrayPDA derives the bin array holding bins
// [index*70, index*70+69] of lbPair.
func DeriveBinArrayPDA(lbPair solana.PublicKey, index int64) (solana.PublicKey, error) {
	indexBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(indexBytes, uint64(index))

	seeds := [][]byte{[]byte("bin_array"), lbPair.Bytes(), indexBytes}

	pda, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

func DeriveBinArrayBitmapExtensionPDA(lbPair solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{[]byte("bitmap"), lbPair.Bytes()}

	pda, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return pda, nil
}

// BinIdToBinArrayIndex floors binId / MaxBinPerArray towards negative infinity.
func BinIdToBinArrayIndex(binId int32) int64 {
	idx := int64(binId) / MaxBinPerArray
	if binId < 0 && int64(binId)%MaxBinPerArray != 0 {
		idx--
	}
	return idx
}

// IsOverflowDefaultBinArrayBitmap reports whether index lives outside the
// bitmap stored inline on the pair.
func IsOverflowDefaultBinArrayBitmap(index int64) bool {
	return index > BinArrayBitmapSize-1 || index < -BinArrayBitmapSize
}

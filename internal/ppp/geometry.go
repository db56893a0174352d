package ppp

import (
	"errors"

	"github.com/imclab/otpasswd/internal/bignum"
)

// ErrColumnRange is returned when a requested column falls outside the
// card's column count for the active code length.
var ErrColumnRange = errors.New("ppp: column out of range")

// ErrRowRange is returned when a requested row falls outside [1,10].
var ErrRowRange = errors.New("ppp: row out of range")

// ErrCodeLengthRange is returned when a code length has no geometry
// entry (outside [2,16]).
var ErrCodeLengthRange = errors.New("ppp: code length out of range")

// codesInRow implements the DATA MODEL §3 geometry table.
func codesInRow(length int) (int, error) {
	switch {
	case length == 2:
		return 11, nil
	case length == 3:
		return 8, nil
	case length == 4:
		return 7, nil
	case length == 5 || length == 6:
		return 5, nil
	case length == 7:
		return 4, nil
	case length >= 8 && length <= 10:
		return 3, nil
	case length >= 11 && length <= 16:
		return 2, nil
	default:
		return 0, ErrCodeLengthRange
	}
}

var allOnes128 = bignum.Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}

// Calculate recomputes s's cached card geometry from its counter and
// code length (spec §3 "Card geometry", invoked as ppp_calculate after
// any counter or length change).
func Calculate(s *State) error {
	rowLen, err := codesInRow(s.CodeLength)
	if err != nil {
		return err
	}
	s.CodesInRow = rowLen
	s.CodesOnCard = rowLen * 10

	u := Unsalt(s.Counter, s.Salted())
	q, r := u.DivModUint32(uint32(s.CodesOnCard))
	currentCard, _ := q.AddUint64(1)
	s.CurrentCard = currentCard
	s.CurrentRow = 1 + int(r)/rowLen
	s.CurrentCol = 'A' + byte(int(r)%rowLen)

	limit := allOnes128
	if s.Salted() {
		limit = CodeMask
	}
	maxCardQ, _ := limit.DivModUint32(uint32(s.CodesOnCard))
	maxCard, underflow := maxCardQ.SubUint64(1)
	if underflow {
		maxCard = bignum.Zero
	}
	s.MaxCard = maxCard
	maxCode, _ := maxCard.MulUint64(uint64(s.CodesOnCard))
	s.MaxCode = maxCode
	return nil
}

// PasscodeAt computes the (unsalted) card-index counter for a given
// passcard position, then applies salt (spec §4.3).
func PasscodeAt(length int, card uint64, column byte, row int, salt bignum.Uint128, salted bool) (bignum.Uint128, error) {
	rowLen, err := codesInRow(length)
	if err != nil {
		return bignum.Zero, err
	}
	if column < 'A' || column >= 'A'+byte(rowLen) {
		return bignum.Zero, ErrColumnRange
	}
	if row < 1 || row > 10 {
		return bignum.Zero, ErrRowRange
	}
	codesOnCard := uint64(rowLen * 10)
	cardIndex := bignum.FromUint64((card - 1) * codesOnCard)
	cardIndex = cardIndex.Add(bignum.FromUint64(uint64(row-1) * uint64(rowLen)))
	cardIndex = cardIndex.Add(bignum.FromUint64(uint64(column - 'A')))
	return AddSalt(cardIndex, salt, salted), nil
}

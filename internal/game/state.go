package game

import (
	"math/rand/v2"
)

// Seat identifies one of the two sides of a session. Canonical state is
// always stored from SeatOne's point of view.
type Seat int

const (
	SeatOne Seat = 1
	SeatTwo Seat = 2
)

func (s Seat) Other() Seat {
	if s == SeatOne {
		return SeatTwo
	}
	return SeatOne
}

// Card is one Whot card. The broker treats cards as opaque data: legality
// of a play is decided client-side and merely relayed.
type Card struct {
	Suit   string `json:"suit"`
	Number int    `json:"number"`
}

// State is the authoritative game state of a session, oriented to seat one.
// MyCards always means seat one's hand; a seat-two client is handed the
// reoriented projection instead.
type State struct {
	MyCards       []Card `json:"myCards"`
	OpponentCards []Card `json:"opponentCards"`
	Pile          []Card `json:"pile"`
	Market        int    `json:"market"`
	CurrentTurn   Seat   `json:"currentTurn"`
	CalledSuit    string `json:"calledSuit,omitempty"`
	LastAction    string `json:"lastAction,omitempty"`
}

const handSize = 6

// NewState deals a fresh game: a shuffled Whot deck, six cards per side,
// one starter on the pile, the rest counted as the market. Seat one opens.
func NewState(seed uint64) State {
	deck := fullDeck()
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	st := State{
		MyCards:       append([]Card(nil), deck[:handSize]...),
		OpponentCards: append([]Card(nil), deck[handSize:2*handSize]...),
		Pile:          []Card{deck[2*handSize]},
		Market:        len(deck) - 2*handSize - 1,
		CurrentTurn:   SeatOne,
	}
	return st
}

// Reorient returns the state as seen from the other seat: hands swapped,
// turn flipped, everything else untouched. It is an involution --
// Reorient(Reorient(s)) == s for any s -- which is what lets the registry
// canonicalize a seat-two submission by applying the same transform.
func Reorient(s State) State {
	out := s
	out.MyCards = s.OpponentCards
	out.OpponentCards = s.MyCards
	out.CurrentTurn = s.CurrentTurn.Other()
	return out
}

// Oriented returns the projection of canonical state for the given seat.
func Oriented(s State, seat Seat) State {
	if seat == SeatTwo {
		return Reorient(s)
	}
	return s
}

// fullDeck builds the 54-card Whot deck: four shaped suits plus the
// "whot" wild cards.
func fullDeck() []Card {
	var deck []Card
	shaped := []struct {
		suit    string
		numbers []int
	}{
		{"circle", []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
		{"triangle", []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
		{"cross", []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
		{"square", []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
		{"star", []int{1, 2, 3, 4, 5, 7, 8}},
	}
	for _, s := range shaped {
		for _, n := range s.numbers {
			deck = append(deck, Card{Suit: s.suit, Number: n})
		}
	}
	for i := 0; i < 5; i++ {
		deck = append(deck, Card{Suit: "whot", Number: 20})
	}
	return deck
}

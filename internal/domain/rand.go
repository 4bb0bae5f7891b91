package domain

// Rand is the source of randomness for probabilistic decision rules. It is an
// interface so tests can inject a fixed sequence and assert exact branch
// outcomes. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

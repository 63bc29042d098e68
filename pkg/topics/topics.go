// Package topics holds the rotating topic pool for topics mode.
package topics

import "math/rand/v2"

// Defaults is the built-in Spanish topic pool, used whenever no custom
// pool is configured.
var Defaults = []string{
	"programación moderna",
	"desarrollo web actual",
	"inteligencia artificial en el día a día",
	"historia de los ordenadores personales",
	"software libre y código abierto",
	"ciberseguridad para todos",
	"el futuro del trabajo remoto",
	"videojuegos y su industria",
	"ciencia de datos explicada",
	"gadgets y tecnología de consumo",
	"internet de las cosas",
	"la nube y sus servicios",
	"criptografía y privacidad",
	"robótica y automatización",
	"curiosidades de la informática",
}

// Pool picks random topics, avoiding immediate repeats.
type Pool struct {
	topics []string
	last   int
}

func NewPool(topics []string) *Pool {
	if len(topics) == 0 {
		topics = Defaults
	}
	return &Pool{topics: topics, last: -1}
}

// Random returns a topic, never the same one twice in a row when the
// pool has more than one entry.
func (p *Pool) Random() string {
	if len(p.topics) == 1 {
		return p.topics[0]
	}
	for {
		i := rand.IntN(len(p.topics))
		if i != p.last {
			p.last = i
			return p.topics[i]
		}
	}
}

// All returns the pool contents.
func (p *Pool) All() []string { return p.topics }
